package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/fieldops/internal/app/store/metrics"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db, metricsstore.Filter{}, "2026-03-10")
	if counts != (metricsstore.Counts{}) {
		t.Errorf("counts = %+v, want zero", counts)
	}
	if counts.Pending() != 0 || counts.RatePct() != 0 {
		t.Errorf("pending = %d, rate = %d", counts.Pending(), counts.RatePct())
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrg(ctx)
	second := f.CreateWorker(ctx, "יוסי לוי", org.Neighborhood, org.Supervisor.ID)
	f.CreateWorker(ctx, "רון בר", org.Neighborhood, org.Supervisor.ID)
	f.CreateAttendance(ctx, org.Worker, org.Neighborhood.Name, "2026-03-10")
	f.CreateAttendance(ctx, second, org.Neighborhood.Name, "2026-03-09")

	other := f.CreateCity(ctx, "עכו", org.Area.ID)
	otherNb := f.CreateNeighborhood(ctx, "העיר העתיקה", other.ID)
	sup := f.CreateSupervisor(ctx, "רכז עכו", "acre@test.local", otherNb)
	f.CreateWorker(ctx, "מאיה", otherNb, sup.ID)

	tests := []struct {
		name   string
		filter metricsstore.Filter
		want   metricsstore.Counts
	}{
		{
			name:   "everything",
			filter: metricsstore.Filter{},
			want:   metricsstore.Counts{Areas: 1, Cities: 2, Neighborhoods: 2, Supervisors: 2, Workers: 4, Present: 1},
		},
		{
			name: "one city",
			filter: metricsstore.Filter{
				AreaIDs:         []primitive.ObjectID{org.Area.ID},
				CityIDs:         []primitive.ObjectID{org.City.ID},
				NeighborhoodIDs: []primitive.ObjectID{org.Neighborhood.ID},
			},
			want: metricsstore.Counts{Areas: 1, Cities: 1, Neighborhoods: 1, Supervisors: 1, Workers: 3, Present: 1},
		},
		{
			name:   "empty scope",
			filter: metricsstore.Filter{AreaIDs: []primitive.ObjectID{}, CityIDs: []primitive.ObjectID{}, NeighborhoodIDs: []primitive.ObjectID{}},
			want:   metricsstore.Counts{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metricsstore.FetchDashboardCounts(ctx, db, tt.filter, "2026-03-10")
			if got != tt.want {
				t.Errorf("counts = %+v, want %+v", got, tt.want)
			}
		})
	}

	c := metricsstore.Counts{Workers: 4, Present: 3, Absent: 0}
	if c.Pending() != 1 || c.RatePct() != 75 {
		t.Errorf("pending = %d, rate = %d", c.Pending(), c.RatePct())
	}
	if (metricsstore.Counts{Workers: 1, Present: 1, Absent: 1}).Pending() != 0 {
		t.Error("pending must not go negative")
	}
}
