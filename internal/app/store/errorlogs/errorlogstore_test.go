package errorlogstore_test

import (
	"testing"
	"time"

	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
)

func TestStore_InsertListResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := errorlogstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	a, err := s.Insert(ctx, models.ErrorLog{Reference: "ref-a", Operation: "recordCheckIn", Message: "boom"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, models.ErrorLog{Reference: "ref-b", Operation: "fetchAttendanceHistory", Message: "timeout"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.GetByReference(ctx, "ref-a")
	if err != nil || got.ID != a.ID {
		t.Fatalf("GetByReference = %+v, %v", got, err)
	}

	if err := s.Resolve(ctx, a.ID, "admin@x.io"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	open, _ := s.List(ctx, true, 0, 0)
	if len(open) != 1 || open[0].Reference != "ref-b" {
		t.Errorf("unresolved = %+v", open)
	}
	n, _ := s.Count(ctx, false)
	if n != 2 {
		t.Errorf("Count(all) = %d, want 2", n)
	}

	purged, err := s.PurgeResolvedBefore(ctx, time.Now().Add(time.Hour))
	if err != nil || purged != 1 {
		t.Errorf("PurgeResolvedBefore = %d, %v", purged, err)
	}
}
