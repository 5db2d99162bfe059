package reconcile

import (
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleHistory(t *testing.T) ([]Entry, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	site := primitive.NewObjectID()
	worker := primitive.NewObjectID()

	r1 := record(primitive.NewObjectID(), "2025-01-10", models.AttendancePresent)
	r1.SiteID = site
	r1.WorkerID = worker
	r1.WorkerName = "דנה כהן"
	r1.WorkerPhone = "050-1234567"

	r2 := record(primitive.NewObjectID(), "2025-01-10", models.AttendanceAbsent)
	r2.WorkerName = "Yossi"

	r3 := record(primitive.NewObjectID(), "2025-01-09", models.AttendancePresent)
	r3.SiteID = site

	del := deleteEntry(primitive.NewObjectID(), map[string]string{
		"date":        "2025-01-08",
		"status":      models.AttendancePresent,
		"worker_id":   worker.Hex(),
		"worker_name": "דנה כהן",
		"site_id":     site.Hex(),
	}, time.Now())

	return Merge([]models.AttendanceRecord{r1, r2, r3}, []models.AuditEntry{del}, time.UTC), site, worker
}

func TestFilter(t *testing.T) {
	entries, site, worker := sampleHistory(t)

	tests := []struct {
		name string
		c    Criteria
		want int
	}{
		{"all", Criteria{}, 4},
		{"site", Criteria{SiteID: site.Hex()}, 3},
		{"worker", Criteria{WorkerID: worker.Hex()}, 2},
		{"absent", Criteria{Status: "absent"}, 1},
		{"live only", Criteria{Show: ShowLive}, 3},
		{"deleted only", Criteria{Show: ShowDeleted}, 1},
		{"hebrew search", Criteria{Search: "דנה"}, 2},
		{"phone search", Criteria{Search: "1234567"}, 1},
		{"case-insensitive search", Criteria{Search: "YOSSI"}, 1},
		{"no match", Criteria{Search: "nobody"}, 0},
		{"combined", Criteria{SiteID: site.Hex(), Show: ShowLive, Status: models.AttendancePresent}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filter(entries, tt.c); len(got) != tt.want {
				t.Errorf("Filter(%+v) returned %d rows, want %d", tt.c, len(got), tt.want)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	entries, site, _ := sampleHistory(t)
	got := Filter(entries, Criteria{SiteID: site.Hex()})
	for i := 1; i < len(got); i++ {
		if got[i-1].Date() < got[i].Date() {
			t.Fatalf("order broken at %d", i)
		}
	}
}

func TestPage(t *testing.T) {
	entries := make([]Entry, 0, 55)
	for i := 0; i < 55; i++ {
		r := record(primitive.NewObjectID(), "2025-01-10", models.AttendancePresent)
		entries = append(entries, Entry{Record: &r})
	}

	tests := []struct {
		name               string
		page, size         int
		wantPage, wantLen  int
		wantFrom, wantTo   int
		wantPrev, wantNext bool
	}{
		{"first", 1, 25, 1, 25, 1, 25, false, true},
		{"middle", 2, 25, 2, 25, 26, 50, true, true},
		{"last", 3, 25, 3, 5, 51, 55, true, false},
		{"past end clamps", 9, 25, 3, 5, 51, 55, true, false},
		{"zero clamps", 0, 25, 1, 25, 1, 25, false, true},
		{"default size", 1, 0, 1, DefaultPageSize, 1, DefaultPageSize, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Page(entries, tt.page, tt.size)
			if got.Page != tt.wantPage || len(got.Entries) != tt.wantLen {
				t.Errorf("page=%d len=%d, want page=%d len=%d", got.Page, len(got.Entries), tt.wantPage, tt.wantLen)
			}
			if got.From != tt.wantFrom || got.To != tt.wantTo {
				t.Errorf("rows %d-%d, want %d-%d", got.From, got.To, tt.wantFrom, tt.wantTo)
			}
			if got.HasPrev != tt.wantPrev || got.HasNext != tt.wantNext {
				t.Errorf("prev=%v next=%v", got.HasPrev, got.HasNext)
			}
			if got.Total != 55 {
				t.Errorf("total = %d", got.Total)
			}
		})
	}
}

func TestPage_Empty(t *testing.T) {
	got := Page(nil, 3, 10)
	if got.Page != 1 || got.TotalPages != 1 || len(got.Entries) != 0 {
		t.Errorf("empty page = %+v", got)
	}
	if got.From != 0 || got.To != 0 {
		t.Errorf("empty range = %d-%d", got.From, got.To)
	}
}

func TestSummarize(t *testing.T) {
	entries, _, _ := sampleHistory(t)
	s := Summarize(entries)

	if s.Present != 2 || s.Absent != 1 || s.Deleted != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Days != 2 {
		t.Errorf("days = %d, want 2", s.Days)
	}
	if s.Workers != 3 {
		t.Errorf("workers = %d, want 3", s.Workers)
	}
	if want := 2.0 / 3.0; s.PresenceRate != want {
		t.Errorf("rate = %v, want %v", s.PresenceRate, want)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}
