package orgutil_test

import (
	"testing"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type world struct {
	north, south  models.Area
	haifa, beer   models.City
	hadar, carmel models.Neighborhood
	ramot         models.Neighborhood
	mgr, sup      models.User
	coord         models.User
}

func seed(t *testing.T, fx *testutil.Fixtures) world {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var w world
	w.mgr = fx.CreateUser(ctx, "מנהל צפון", "mgr@x.io", models.RoleAreaManager, nil)
	w.north = fx.CreateArea(ctx, "צפון", &w.mgr.ID)
	w.south = fx.CreateArea(ctx, "דרום", nil)
	w.haifa = fx.CreateCity(ctx, "חיפה", w.north.ID)
	w.beer = fx.CreateCity(ctx, "באר שבע", w.south.ID)
	w.hadar = fx.CreateNeighborhood(ctx, "הדר", w.haifa.ID)
	w.carmel = fx.CreateNeighborhood(ctx, "כרמל", w.haifa.ID)
	w.ramot = fx.CreateNeighborhood(ctx, "רמות", w.beer.ID)
	w.sup = fx.CreateSupervisor(ctx, "רכז הדר", "sup@x.io", w.hadar)
	cityID := w.haifa.ID
	w.coord = fx.CreateUser(ctx, "רכזת חיפה", "coord@x.io", models.RoleCityCoordinator, &cityID)
	fx.CreateWorker(ctx, "עובד 1", w.hadar, w.sup.ID)
	fx.CreateWorker(ctx, "עובד 2", w.hadar, w.sup.ID)
	fx.CreateWorker(ctx, "עובד 3", w.ramot, w.sup.ID)
	return w
}

func TestResolve_ByRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	w := seed(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t.Run("superadmin sees all", func(t *testing.T) {
		s, err := orgutil.Resolve(ctx, db, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleSuperAdmin})
		if err != nil || !s.All {
			t.Fatalf("scope = %+v, %v", s, err)
		}
		if s.CityFilter() != nil {
			t.Error("superadmin filter should be nil")
		}
	})

	t.Run("area manager sees own area", func(t *testing.T) {
		s, err := orgutil.Resolve(ctx, db, &auth.SessionUser{ID: w.mgr.ID.Hex(), Role: models.RoleAreaManager})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !s.HasArea(w.north.ID) || s.HasArea(w.south.ID) {
			t.Errorf("areas = %v", s.AreaIDs)
		}
		if !s.HasNeighborhood(w.carmel.ID) || s.HasNeighborhood(w.ramot.ID) {
			t.Errorf("neighborhoods = %v", s.NeighborhoodIDs)
		}
	})

	t.Run("city coordinator sees own city's area", func(t *testing.T) {
		s, err := orgutil.Resolve(ctx, db, &auth.SessionUser{ID: w.coord.ID.Hex(), Role: models.RoleCityCoordinator, CityID: w.haifa.ID.Hex()})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !s.HasArea(w.north.ID) || !s.HasCity(w.haifa.ID) || s.HasCity(w.beer.ID) {
			t.Errorf("scope = %+v", s)
		}
		if len(s.NeighborhoodIDs) != 2 {
			t.Errorf("neighborhoods = %v", s.NeighborhoodIDs)
		}
	})

	t.Run("supervisor sees assigned neighborhoods", func(t *testing.T) {
		s, err := orgutil.Resolve(ctx, db, &auth.SessionUser{ID: w.sup.ID.Hex(), Role: models.RoleActivistCoordinator, CityID: w.haifa.ID.Hex()})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !s.HasNeighborhood(w.hadar.ID) || s.HasNeighborhood(w.carmel.ID) {
			t.Errorf("neighborhoods = %v", s.NeighborhoodIDs)
		}
		if !s.HasArea(w.north.ID) {
			t.Errorf("areas = %v", s.AreaIDs)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		if _, err := orgutil.Resolve(ctx, db, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "guest"}); err == nil {
			t.Error("expected ErrNoScope")
		}
	})
}

func TestScopeFilters(t *testing.T) {
	var s orgutil.Scope
	if got := s.CityFilter(); got == nil || len(got) != 0 {
		t.Errorf("empty scope filter = %v, want empty non-nil", got)
	}
	if s.HasCity(primitive.NewObjectID()) {
		t.Error("empty scope sees a city")
	}
}

func TestHierarchyAndTree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	w := seed(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h, err := orgutil.LoadHierarchy(ctx, db, orgutil.Scope{All: true})
	if err != nil {
		t.Fatalf("LoadHierarchy: %v", err)
	}
	if len(h.Areas) != 2 || len(h.Cities) != 2 || len(h.Neighborhoods) != 3 || len(h.Supervisors) != 1 {
		t.Fatalf("hierarchy sizes: %d %d %d %d", len(h.Areas), len(h.Cities), len(h.Neighborhoods), len(h.Supervisors))
	}

	d := h.Dataset()
	if len(d.Cities) != 2 || d.Supervisors[0].ParentID != w.haifa.ID.Hex() {
		t.Errorf("dataset = %+v", d)
	}

	tree, err := orgutil.BuildTree(ctx, db, h)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	var north orgutil.AreaNode
	for _, a := range tree {
		if a.Area.ID == w.north.ID {
			north = a
		}
	}
	if north.Workers != 2 || len(north.Cities) != 1 {
		t.Fatalf("north = %+v", north)
	}
	for _, n := range north.Cities[0].Neighborhoods {
		if n.Neighborhood.ID == w.hadar.ID && (n.Workers != 2 || len(n.Supervisors) != 1) {
			t.Errorf("hadar node = %+v", n)
		}
	}
}

func TestSupervisorFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	w := seed(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fetch := orgutil.SupervisorFetcher(db)
	got, err := fetch(ctx, w.hadar.ID.Hex())
	if err != nil || len(got) != 1 || got[0].ID != w.sup.ID.Hex() {
		t.Errorf("hadar supervisors = %+v, %v", got, err)
	}
	got, err = fetch(ctx, w.carmel.ID.Hex())
	if err != nil || len(got) != 0 {
		t.Errorf("carmel supervisors = %+v, %v; want empty", got, err)
	}
	if _, err := fetch(ctx, "bad"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestCountBy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	w := seed(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts, err := orgutil.CountBy(ctx, db, "cities", bson.M{"status": models.StatusActive}, "area_manager_id")
	if err != nil {
		t.Fatalf("CountBy: %v", err)
	}
	if counts[w.north.ID] != 1 || counts[w.south.ID] != 1 {
		t.Errorf("counts = %v", counts)
	}
	none, _ := orgutil.CountBy(ctx, db, "cities", bson.M{"status": "nope"}, "area_manager_id")
	if len(none) != 0 {
		t.Errorf("expected empty map, got %v", none)
	}
}
