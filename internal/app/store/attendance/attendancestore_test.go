package attendancestore_test

import (
	"errors"
	"testing"
	"time"

	attendancestore "github.com/dalemusser/fieldops/internal/app/store/attendance"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) *attendancestore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func rec(worker, site primitive.ObjectID, date string) models.AttendanceRecord {
	now := time.Now().UTC()
	return models.AttendanceRecord{
		Date:        date,
		WorkerID:    worker,
		SiteID:      site,
		Status:      models.AttendancePresent,
		CheckedInAt: &now,
		WorkerName:  "עובד",
		SiteName:    "אתר",
	}
}

func TestStore_Create_OnePerWorkerPerDay(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w, site := primitive.NewObjectID(), primitive.NewObjectID()
	first, err := s.Create(ctx, rec(w, site, "2025-01-10"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID.IsZero() || first.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamps: %+v", first)
	}
	if _, err := s.Create(ctx, rec(w, site, "2025-01-10")); !errors.Is(err, attendancestore.ErrAlreadyCheckedIn) {
		t.Errorf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if _, err := s.Create(ctx, rec(w, site, "2025-01-11")); err != nil {
		t.Errorf("next day: %v", err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, _ := s.Create(ctx, rec(primitive.NewObjectID(), primitive.NewObjectID(), "2025-01-10"))

	after, err := s.Update(ctx, r.ID, models.AttendanceAbsent, "חולה")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if after.Status != models.AttendanceAbsent || after.Notes != "חולה" {
		t.Errorf("after update: %+v", after)
	}

	removed, err := s.Delete(ctx, r.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.ID != r.ID || removed.Status != models.AttendanceAbsent {
		t.Errorf("removed = %+v", removed)
	}
	if _, err := s.Delete(ctx, r.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second delete = %v, want ErrNoDocuments", err)
	}
	if _, err := s.Update(ctx, r.ID, models.AttendancePresent, ""); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("update deleted = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListRange(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	siteA, siteB := primitive.NewObjectID(), primitive.NewObjectID()
	w1, w2 := primitive.NewObjectID(), primitive.NewObjectID()
	for _, r := range []models.AttendanceRecord{
		rec(w1, siteA, "2025-01-08"),
		rec(w1, siteA, "2025-01-09"),
		rec(w1, siteA, "2025-01-10"),
		rec(w2, siteB, "2025-01-09"),
		rec(w2, siteB, "2025-01-12"),
	} {
		if _, err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		name      string
		q         attendancestore.RangeQuery
		wantCount int
	}{
		{"whole range", attendancestore.RangeQuery{From: "2025-01-01", To: "2025-01-31"}, 5},
		{"inclusive bounds", attendancestore.RangeQuery{From: "2025-01-09", To: "2025-01-10"}, 3},
		{"by site", attendancestore.RangeQuery{From: "2025-01-01", To: "2025-01-31", SiteIDs: []primitive.ObjectID{siteB}}, 2},
		{"empty site scope", attendancestore.RangeQuery{SiteIDs: []primitive.ObjectID{}}, 0},
		{"by worker", attendancestore.RangeQuery{WorkerID: &w1}, 3},
		{"limited", attendancestore.RangeQuery{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRange(ctx, tt.q)
			if err != nil {
				t.Fatalf("ListRange: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d records, want %d", len(got), tt.wantCount)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].Date < got[i].Date {
					t.Errorf("not sorted newest first: %s before %s", got[i-1].Date, got[i].Date)
				}
			}
		})
	}
}

func TestStore_ByWorkerForDate(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	site := primitive.NewObjectID()
	w1, w2 := primitive.NewObjectID(), primitive.NewObjectID()
	_, _ = s.Create(ctx, rec(w1, site, "2025-01-10"))
	_, _ = s.Create(ctx, rec(w2, site, "2025-01-09"))

	got, err := s.ByWorkerForDate(ctx, "2025-01-10", []primitive.ObjectID{w1, w2})
	if err != nil {
		t.Fatalf("ByWorkerForDate: %v", err)
	}
	if _, ok := got[w1]; !ok || len(got) != 1 {
		t.Errorf("got %v", got)
	}
}
