package timewindow

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestWatcher_ReportsTransitions(t *testing.T) {
	w := mustWindow(t, "06:00", "22:00")
	clock := &fakeClock{now: at("05:59:00")}

	got := make(chan Transition, 4)
	watcher := NewWatcher(w, 5*time.Millisecond, nil, func(ctx context.Context, tr Transition) {
		got <- tr
	})
	watcher.SetClock(clock.Now)
	watcher.Start()
	defer watcher.Stop()

	clock.Set(at("06:00:00"))
	select {
	case tr := <-got:
		if !tr.Open {
			t.Errorf("expected open transition, got %+v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for open transition")
	}

	clock.Set(at("22:00:00"))
	select {
	case tr := <-got:
		if tr.Open {
			t.Errorf("expected close transition, got %+v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close transition")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := mustWindow(t, "06:00", "22:00")
	watcher := NewWatcher(w, time.Millisecond, nil, nil)
	watcher.Start()

	done := make(chan struct{})
	go func() {
		watcher.Stop()
		watcher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWatcher_InitialStateTakenAtStart(t *testing.T) {
	w := mustWindow(t, "06:00", "22:00")
	var mu sync.Mutex
	reads := 0
	watcher := NewWatcher(w, time.Hour, nil, nil)
	watcher.SetClock(func() time.Time {
		mu.Lock()
		reads++
		mu.Unlock()
		return at("05:59:00")
	})
	watcher.Start()
	defer watcher.Stop()

	mu.Lock()
	defer mu.Unlock()
	if reads == 0 {
		t.Fatal("Start returned before reading the clock; a change right after Start would be missed")
	}
}
