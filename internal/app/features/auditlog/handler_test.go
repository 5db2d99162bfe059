package auditlog

import (
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]string
		after  map[string]string
		want   []change
	}{
		{"create", nil, map[string]string{"name": "חיפה"}, []change{{Field: "name", After: "חיפה"}}},
		{"delete", map[string]string{"name": "חיפה"}, nil, []change{{Field: "name", Before: "חיפה"}}},
		{
			"update keeps changed fields only",
			map[string]string{"name": "חיפה", "code": "HFA"},
			map[string]string{"name": "חיפה", "code": "HAI"},
			[]change{{Field: "code", Before: "HFA", After: "HAI"}},
		},
		{"nothing", nil, nil, []change{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diff(tt.before, tt.after)
			if len(got) != len(tt.want) {
				t.Fatalf("diff = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("diff[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildFilter(t *testing.T) {
	jlm, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Skip("tzdata not available")
	}
	city := primitive.NewObjectID()

	f := buildFilter(filterInput{
		Entity: models.EntityWorker,
		Action: models.AuditDelete,
		Email:  " Dana@Test.Local ",
		From:   "2026-03-01",
		To:     "2026-03-01",
	}, orgutil.Scope{CityIDs: []primitive.ObjectID{city}}, jlm)

	if f.Entity != models.EntityWorker || f.Action != models.AuditDelete {
		t.Errorf("entity/action = %q/%q", f.Entity, f.Action)
	}
	if f.UserEmail != "dana@test.local" {
		t.Errorf("email = %q", f.UserEmail)
	}
	if len(f.CityIDs) != 1 || f.CityIDs[0] != city {
		t.Errorf("cities = %v", f.CityIDs)
	}
	wantStart := time.Date(2026, 2, 28, 22, 0, 0, 0, time.UTC)
	if f.StartTime == nil || !f.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", f.StartTime, wantStart)
	}
	if f.EndTime == nil || !f.EndTime.Before(wantStart.Add(24*time.Hour)) || f.EndTime.Before(wantStart.Add(23*time.Hour)) {
		t.Errorf("end = %v", f.EndTime)
	}

	all := buildFilter(filterInput{}, orgutil.Scope{All: true}, time.UTC)
	if all.CityIDs != nil || all.StartTime != nil || all.EndTime != nil {
		t.Errorf("empty filter = %+v", all)
	}
}

func TestScopedQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := audit.New(db)

	haifa, tlv := primitive.NewObjectID(), primitive.NewObjectID()
	for _, c := range []primitive.ObjectID{haifa, haifa, tlv} {
		cityID := c
		if _, err := store.Log(ctx, models.AuditEntry{
			Entity:    models.EntityWorker,
			EntityID:  primitive.NewObjectID(),
			Action:    models.AuditCreate,
			UserEmail: "admin@test.local",
			CityID:    &cityID,
		}); err != nil {
			t.Fatal(err)
		}
	}

	f := buildFilter(filterInput{}, orgutil.Scope{CityIDs: []primitive.ObjectID{haifa}}, time.UTC)
	n, err := store.CountByFilter(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("haifa entries = %d, want 2", n)
	}

	f = buildFilter(filterInput{Email: "nobody@test.local"}, orgutil.Scope{All: true}, time.UTC)
	if n, _ := store.CountByFilter(ctx, f); n != 0 {
		t.Errorf("unknown user entries = %d, want 0", n)
	}
}
