package cascade

import (
	"context"
	"sync"
)

// Fetcher loads the supervisors assigned to one neighborhood.
type Fetcher func(ctx context.Context, neighborhoodID string) ([]Option, error)

// Session runs a Form's supervisor fetches asynchronously. A newer
// neighborhood selection cancels the fetch in flight, and a result that
// arrives anyway is rejected by its ticket.
type Session struct {
	mu     sync.Mutex
	form   *Form
	fetch  Fetcher
	cancel context.CancelFunc
}

// NewSession wraps f.
func NewSession(f *Form, fetch Fetcher) *Session {
	return &Session{form: f, fetch: fetch}
}

// Select applies the selection and, when a neighborhood was chosen, starts
// the supervisor fetch. The returned channel closes when that fetch has
// been applied or dropped; it is already closed when nothing was fetched.
func (s *Session) Select(ctx context.Context, l Level, id string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, fetch, err := s.form.Select(l, id)
	if err != nil {
		return closed(), err
	}
	if l <= LevelNeighborhood {
		s.stop()
	}
	if !fetch {
		return closed(), nil
	}
	return s.start(ctx, t), nil
}

// Resume starts the fetch left pending by Prepopulate, if any.
func (s *Session) Resume(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.form.PendingTicket()
	if !ok {
		return closed()
	}
	s.stop()
	return s.start(ctx, t)
}

func (s *Session) start(parent context.Context, t Ticket) <-chan struct{} {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		list, err := s.fetch(ctx, t.NeighborhoodID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.form.FailSupervisors(t)
			return
		}
		s.form.ApplySupervisors(t, list)
	}()
	return done
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Do runs fn with exclusive access to the form.
func (s *Session) Do(fn func(f *Form)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.form)
}

// Close cancels any fetch in flight.
func (s *Session) Close() {
	s.mu.Lock()
	s.stop()
	s.mu.Unlock()
}

func closed() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
