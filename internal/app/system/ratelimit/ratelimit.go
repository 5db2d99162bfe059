// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
)

// Budget is how many attempts a key may spend within one fixed window.
type Budget struct {
	Attempts int
	Per      time.Duration
}

// Limiter counts attempts per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	budget Budget

	mu      sync.Mutex
	buckets map[string]*bucket

	quit     chan struct{}
	quitOnce sync.Once
}

type bucket struct {
	used  int
	until time.Time
}

// New starts a limiter allowing limit attempts per window.
func New(limit int, window time.Duration) *Limiter {
	return NewBudget(Budget{Attempts: limit, Per: window})
}

// NewBudget starts a limiter for b and its background sweep.
func NewBudget(b Budget) *Limiter {
	l := &Limiter{
		budget:  b,
		buckets: make(map[string]*bucket),
		quit:    make(chan struct{}),
	}
	go l.sweep(2 * b.Per)
	return l
}

// live returns the key's bucket if its window has not ended. Caller holds mu.
func (l *Limiter) live(key string, now time.Time) *bucket {
	b := l.buckets[key]
	if b == nil || now.After(b.until) {
		return nil
	}
	return b
}

// Allow spends one attempt for key and reports whether it was within budget.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.live(key, now)
	if b == nil {
		l.buckets[key] = &bucket{used: 1, until: now.Add(l.budget.Per)}
		return true
	}
	if b.used >= l.budget.Attempts {
		return false
	}
	b.used++
	return true
}

// Remaining is the number of attempts key may still spend in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.live(key, time.Now())
	if b == nil {
		return l.budget.Attempts
	}
	return max(l.budget.Attempts-b.used, 0)
}

// Reset forgets key, restoring its full budget.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Limiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.quit:
			return
		case now := <-t.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.After(b.until) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the background sweep. Safe to call more than once.
func (l *Limiter) Close() {
	l.quitOnce.Do(func() { close(l.quit) })
}

func clientKey(r *http.Request) string { return auditlog.RemoteIP(r) }

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sign-in budgets used by NewLoginLimiter.
var (
	DefaultPerIP    = Budget{Attempts: 10, Per: time.Minute}
	DefaultPerEmail = Budget{Attempts: 5, Per: 5 * time.Minute}
)

const (
	msgTooManyFromIP     = "יותר מדי ניסיונות התחברות. נסו שוב בעוד דקה."
	msgTooManyForAccount = "יותר מדי ניסיונות התחברות לחשבון זה. נסו שוב בעוד כמה דקות."
)

// LoginLimiter throttles sign-in attempts by client IP and by email, so that
// neither a single address nor a single account can be hammered.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter uses DefaultPerIP and DefaultPerEmail.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWith(DefaultPerIP, DefaultPerEmail)
}

func NewLoginLimiterWith(perIP, perEmail Budget) *LoginLimiter {
	return &LoginLimiter{byIP: NewBudget(perIP), byEmail: NewBudget(perEmail)}
}

// Check spends one attempt for the request's IP and, when given, the email.
// A refusal comes with the Hebrew message to show on the sign-in form.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(clientKey(r)) {
		return false, msgTooManyFromIP
	}
	if email != "" && !ll.byEmail.Allow(emailKey(email)) {
		return false, msgTooManyForAccount
	}
	return true, ""
}

// ResetEmail clears the account budget after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		ll.byEmail.Reset(emailKey(email))
	}
}

func (ll *LoginLimiter) Close() {
	ll.byIP.Close()
	ll.byEmail.Close()
}
