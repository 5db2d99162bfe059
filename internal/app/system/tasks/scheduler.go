// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work run every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; 30s when zero
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their own tickers until Stop.
type Scheduler struct {
	log    *zap.Logger
	jobs   []Job
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a scheduler for jobs.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{log: logger, jobs: jobs, stopCh: make(chan struct{})}
}

// Start launches one goroutine per job.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		if j.Interval <= 0 || j.Run == nil {
			s.log.Warn("skipping job without interval or body", zap.String("job", j.Name))
			continue
		}
		s.wg.Add(1)
		go s.loop(j)
		s.log.Info("background job started", zap.String("job", j.Name), zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job to stop and waits for running ones to finish. It
// is safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.log.Info("background jobs stopped")
	})
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(j)
		}
	}
}

func (s *Scheduler) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("background job panicked", zap.String("job", j.Name), zap.Any("panic", p))
		}
	}()

	if err := j.Run(ctx); err != nil {
		s.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
