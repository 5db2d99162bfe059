package neighborhoodstore_test

import (
	"errors"
	"testing"

	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := neighborhoodstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	haifa, tlv := primitive.NewObjectID(), primitive.NewObjectID()
	hadar, err := s.Create(ctx, models.Neighborhood{Name: "הדר", CityID: haifa})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	carmel, _ := s.Create(ctx, models.Neighborhood{Name: "כרמל", CityID: haifa})
	_, _ = s.Create(ctx, models.Neighborhood{Name: "פלורנטין", CityID: tlv})

	if _, err := s.Create(ctx, models.Neighborhood{Name: "הדר", CityID: haifa}); !errors.Is(err, neighborhoodstore.ErrDuplicateNeighborhood) {
		t.Errorf("expected ErrDuplicateNeighborhood, got %v", err)
	}

	list, err := s.ListByCities(ctx, []primitive.ObjectID{haifa})
	if err != nil {
		t.Fatalf("ListByCities: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("haifa has %d neighborhoods, want 2", len(list))
	}

	byIDs, _ := s.GetByIDs(ctx, []primitive.ObjectID{hadar.ID, carmel.ID})
	if len(byIDs) != 2 {
		t.Errorf("GetByIDs returned %d", len(byIDs))
	}

	if err := s.Update(ctx, hadar.ID, models.Neighborhood{Name: "הדר הכרמל", Address: "הרצל 1", CityID: haifa}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.GetByID(ctx, hadar.ID)
	if got.Name != "הדר הכרמל" || got.Address != "הרצל 1" {
		t.Errorf("after update: %+v", got)
	}
	if err := s.Update(ctx, primitive.NewObjectID(), models.Neighborhood{Name: "x"}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("update missing = %v", err)
	}
}
