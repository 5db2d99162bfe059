package cascade

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSession_AppliesFetchedSupervisors(t *testing.T) {
	f := NewForm(testData(), LevelSupervisor, ModeCreate)
	s := NewSession(f, func(ctx context.Context, nb string) ([]Option, error) {
		return []Option{{ID: "s-" + nb}}, nil
	})
	defer s.Close()

	ctx := context.Background()
	waitFor(t, mustSessionSelect(t, s, ctx, LevelArea, "a1"))
	waitFor(t, mustSessionSelect(t, s, ctx, LevelCity, "c1"))
	waitFor(t, mustSessionSelect(t, s, ctx, LevelNeighborhood, "n2"))

	s.Do(func(f *Form) {
		if got := ids(f.Options(LevelSupervisor)); len(got) != 1 || got[0] != "s-n2" {
			t.Errorf("options = %v", got)
		}
	})
}

func TestSession_NewerSelectionWins(t *testing.T) {
	release := make(chan struct{})
	f := NewForm(testData(), LevelSupervisor, ModeCreate)
	s := NewSession(f, func(ctx context.Context, nb string) ([]Option, error) {
		if nb == "n1" {
			// Slow fetch: returns only after the newer one has been applied.
			<-release
			return []Option{{ID: "stale"}}, nil
		}
		return []Option{{ID: "fresh"}}, nil
	})
	defer s.Close()

	ctx := context.Background()
	waitFor(t, mustSessionSelect(t, s, ctx, LevelArea, "a1"))
	waitFor(t, mustSessionSelect(t, s, ctx, LevelCity, "c1"))
	slow := mustSessionSelect(t, s, ctx, LevelNeighborhood, "n1")
	fast := mustSessionSelect(t, s, ctx, LevelNeighborhood, "n2")
	waitFor(t, fast)
	close(release)
	waitFor(t, slow)

	s.Do(func(f *Form) {
		if got := ids(f.Options(LevelSupervisor)); len(got) != 1 || got[0] != "fresh" {
			t.Errorf("options = %v, want [fresh]", got)
		}
	})
}

func TestSession_FetchErrorDegrades(t *testing.T) {
	f := NewForm(testData(), LevelSupervisor, ModeCreate)
	s := NewSession(f, func(ctx context.Context, nb string) ([]Option, error) {
		return nil, errors.New("unavailable")
	})
	defer s.Close()

	ctx := context.Background()
	waitFor(t, mustSessionSelect(t, s, ctx, LevelArea, "a1"))
	waitFor(t, mustSessionSelect(t, s, ctx, LevelCity, "c1"))
	waitFor(t, mustSessionSelect(t, s, ctx, LevelNeighborhood, "n1"))

	s.Do(func(f *Form) {
		if len(f.Options(LevelSupervisor)) != 0 || f.OptionsMessage(LevelSupervisor) == "" {
			t.Error("expected empty list with a message")
		}
	})
}

func TestSession_Resume(t *testing.T) {
	f, err := Prepopulate(testData(), LevelSupervisor, LevelNeighborhood, "n1")
	if err != nil {
		t.Fatal(err)
	}
	f.Preselect("s1")
	s := NewSession(f, func(ctx context.Context, nb string) ([]Option, error) {
		return []Option{{ID: "s1"}}, nil
	})
	defer s.Close()

	waitFor(t, s.Resume(context.Background()))
	s.Do(func(f *Form) {
		if f.SupervisorID != "s1" {
			t.Errorf("supervisor = %q", f.SupervisorID)
		}
	})
}

func TestSession_InvalidSelection(t *testing.T) {
	s := NewSession(NewForm(testData(), LevelSupervisor, ModeCreate), nil)
	done, err := s.Select(context.Background(), LevelCity, "c1")
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("err = %v", err)
	}
	waitFor(t, done)
}

func mustSessionSelect(t *testing.T, s *Session, ctx context.Context, l Level, id string) <-chan struct{} {
	t.Helper()
	done, err := s.Select(ctx, l, id)
	if err != nil {
		t.Fatalf("Select(%d, %q): %v", l, id, err)
	}
	return done
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}
