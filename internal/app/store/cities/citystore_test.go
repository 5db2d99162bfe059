package citystore_test

import (
	"errors"
	"testing"

	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := citystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	north, south := primitive.NewObjectID(), primitive.NewObjectID()
	haifa, err := s.Create(ctx, models.City{Name: "חיפה", AreaManagerID: north})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if haifa.Status != models.StatusActive || haifa.NameCI == "" {
		t.Errorf("unexpected defaults: %+v", haifa)
	}
	if _, err := s.Create(ctx, models.City{Name: "עכו", AreaManagerID: north}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, models.City{Name: "באר שבע", AreaManagerID: south}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same name in another area is fine; same area is not.
	if _, err := s.Create(ctx, models.City{Name: "חיפה", AreaManagerID: south}); err != nil {
		t.Errorf("same name in other area: %v", err)
	}
	if _, err := s.Create(ctx, models.City{Name: "חיפה", AreaManagerID: north}); !errors.Is(err, citystore.ErrDuplicateCity) {
		t.Errorf("expected ErrDuplicateCity, got %v", err)
	}

	got, err := s.ListByAreas(ctx, []primitive.ObjectID{north})
	if err != nil {
		t.Fatalf("ListByAreas: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("north has %d cities, want 2", len(got))
	}
	all, _ := s.ListByAreas(ctx, nil)
	if len(all) != 4 {
		t.Errorf("all = %d, want 4", len(all))
	}
	n, _ := s.CountByArea(ctx, south)
	if n != 2 {
		t.Errorf("CountByArea(south) = %d, want 2", n)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := citystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	area := primitive.NewObjectID()
	c, _ := s.Create(ctx, models.City{Name: "נצרת", AreaManagerID: area})
	other := primitive.NewObjectID()
	if err := s.Update(ctx, c.ID, "נוף הגליל", "NG", other); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "נוף הגליל" || got.Code != "NG" || got.AreaManagerID != other {
		t.Errorf("after update: %+v", got)
	}
}
