// Package timeouts holds the handler-level timeouts used with
// context.WithTimeout around database work.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and history fetches
//   - Long: writes that touch several collections (check-in with audit,
//     quick-create with assignment)
//   - Batch: exports and background dispatch
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv changes them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config holds timeout values. Zero fields leave the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong, Batch: DefaultBatch}
}

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range pairs(&cur, cfg) {
		if p.val > 0 {
			*p.dst = p.val
		}
	}
}

type pair struct {
	dst *time.Duration
	val time.Duration
	env string
}

func pairs(dst *Config, src Config) []pair {
	return []pair{
		{&dst.Ping, src.Ping, "TIMEOUT_PING"},
		{&dst.Short, src.Short, "TIMEOUT_SHORT"},
		{&dst.Medium, src.Medium, "TIMEOUT_MEDIUM"},
		{&dst.Long, src.Long, "TIMEOUT_LONG"},
		{&dst.Batch, src.Batch, "TIMEOUT_BATCH"},
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	cur = defaults()
	mu.Unlock()
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go durations). Invalid or non-positive
// values are ignored. It returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, p := range pairs(&cur, Config{}) {
		v := os.Getenv(p.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*p.dst = d
			n++
		}
	}
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "attendance check-in")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
