package workerstore_test

import (
	"testing"

	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateNormalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := workerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w, err := s.Create(ctx, models.Worker{
		FullName:       "  דנה   כהן ",
		Phone:          "050-123 4567",
		NeighborhoodID: primitive.NewObjectID(),
		CityID:         primitive.NewObjectID(),
		SupervisorID:   primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.FullName != "דנה כהן" || w.Phone != "0501234567" || w.Status != models.StatusActive {
		t.Errorf("normalized worker = %+v", w)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := workerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	city := primitive.NewObjectID()
	n1, n2 := primitive.NewObjectID(), primitive.NewObjectID()
	sup := primitive.NewObjectID()

	mk := func(name string, nb primitive.ObjectID, status string) models.Worker {
		w, err := s.Create(ctx, models.Worker{FullName: name, NeighborhoodID: nb, CityID: city, SupervisorID: sup, Status: status})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return w
	}
	mk("אבי", n1, "")
	mk("בני", n1, "")
	mk("גילה", n2, "")
	mk("דוד", n1, models.StatusDisabled)

	tests := []struct {
		name string
		q    workerstore.Query
		want int
	}{
		{"all active", workerstore.Query{}, 3},
		{"include disabled", workerstore.Query{IncludeDisabled: true}, 4},
		{"by neighborhood", workerstore.Query{NeighborhoodIDs: []primitive.ObjectID{n1}}, 2},
		{"empty scope", workerstore.Query{CityIDs: []primitive.ObjectID{}}, 0},
		{"by supervisor", workerstore.Query{SupervisorID: &sup}, 3},
		{"search", workerstore.Query{Search: "גיל"}, 1},
		{"search regex chars", workerstore.Query{Search: ".*"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List = %d workers, want %d", len(got), tt.want)
			}
		})
	}

	counts, err := s.CountByNeighborhood(ctx, []primitive.ObjectID{n1, n2})
	if err != nil {
		t.Fatalf("CountByNeighborhood: %v", err)
	}
	if counts[n1] != 2 || counts[n2] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := workerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w, _ := s.Create(ctx, models.Worker{FullName: "רון", NeighborhoodID: primitive.NewObjectID()})
	nb := primitive.NewObjectID()
	w.FullName = "רון לוי"
	w.NeighborhoodID = nb
	w.Position = "פעיל"
	if err := s.Update(ctx, w.ID, w); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.GetByID(ctx, w.ID)
	if got.FullName != "רון לוי" || got.NeighborhoodID != nb || got.Position != "פעיל" {
		t.Errorf("after update: %+v", got)
	}
}
