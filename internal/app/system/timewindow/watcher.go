package timewindow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transition is emitted when the window opens or closes.
type Transition struct {
	Open bool
	At   time.Time
}

// Watcher polls a Window on a fixed interval and reports open/close
// transitions. The first poll only records the initial state.
type Watcher struct {
	window   Window
	interval time.Duration
	now      func() time.Time
	onChange func(ctx context.Context, t Transition)
	log      *zap.Logger

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher. onChange runs on the watcher goroutine.
func NewWatcher(w Window, interval time.Duration, logger *zap.Logger, onChange func(ctx context.Context, t Transition)) *Watcher {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		window:   w,
		interval: interval,
		now:      time.Now,
		onChange: onChange,
		log:      logger,
		stopCh:   make(chan struct{}),
	}
}

// SetClock replaces the time source. Call before Start.
func (w *Watcher) SetClock(now func() time.Time) {
	w.now = now
}

// Start records the current open/closed state and begins polling. Any
// change after Start returns is reported.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run(w.window.IsWithin(w.now()))
	w.log.Info("time window watcher started",
		zap.String("start", w.window.Start.String()),
		zap.String("end", w.window.End.String()),
		zap.Duration("interval", w.interval))
}

// Stop stops the ticker and waits for the goroutine to exit. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
}

func (w *Watcher) run(open bool) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			now := w.now()
			cur := w.window.IsWithin(now)
			if cur == open {
				continue
			}
			open = cur
			if w.onChange == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.onChange(ctx, Transition{Open: cur, At: now})
			cancel()
		}
	}
}
