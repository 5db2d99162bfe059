package areastore_test

import (
	"errors"
	"testing"

	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) *areastore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := areastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func TestStore_Create(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := s.Create(ctx, models.Area{RegionName: "Northern District"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if a.RegionNameCI != text.Fold("Northern District") {
		t.Errorf("RegionNameCI = %q", a.RegionNameCI)
	}
	if a.Status != models.StatusActive {
		t.Errorf("status = %q, want active", a.Status)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("expected timestamps")
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, models.Area{RegionName: "צפון"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := s.Create(ctx, models.Area{RegionName: "צפון"})
	if !errors.Is(err, areastore.ErrDuplicateArea) {
		t.Fatalf("expected ErrDuplicateArea, got %v", err)
	}
}

func TestStore_UpdateAndList(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	north, _ := s.Create(ctx, models.Area{RegionName: "צפון"})
	south, _ := s.Create(ctx, models.Area{RegionName: "דרום"})

	mgr := primitive.NewObjectID()
	if err := s.Update(ctx, north.ID, "צפון", &mgr, "מנהל"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	mine, err := s.ListByManager(ctx, mgr)
	if err != nil {
		t.Fatalf("ListByManager: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != north.ID {
		t.Errorf("ListByManager = %+v", mine)
	}

	all, err := s.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(nil) returned %d areas, want 2", len(all))
	}
	some, _ := s.List(ctx, []primitive.ObjectID{south.ID})
	if len(some) != 1 || some[0].ID != south.ID {
		t.Errorf("List(ids) = %+v", some)
	}
	none, _ := s.List(ctx, []primitive.ObjectID{})
	if len(none) != 0 {
		t.Errorf("List(empty) = %+v", none)
	}

	if err := s.Update(ctx, primitive.NewObjectID(), "x", nil, ""); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Update missing = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := s.Create(ctx, models.Area{RegionName: "מרכז"})
	n, err := s.Delete(ctx, a.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if _, err := s.GetByID(ctx, a.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID after delete = %v", err)
	}
}
