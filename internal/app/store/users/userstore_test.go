package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) (*userstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s, db
}

func TestStore_Create_SuperAdmin(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := s.Create(ctx, models.User{FullName: "  Admin   User ", Email: "Admin@Example.com", Role: "SuperAdmin"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Admin User" {
		t.Errorf("FullName = %q", created.FullName)
	}
	if created.Email != "admin@example.com" {
		t.Errorf("Email = %q", created.Email)
	}
	if created.Role != models.RoleSuperAdmin {
		t.Errorf("Role = %q", created.Role)
	}
	if created.Status != models.StatusActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	city := primitive.NewObjectID()
	tests := []struct {
		name    string
		user    models.User
		wantErr bool
	}{
		{"bad role", models.User{FullName: "x", Email: "a@x.io", Role: "member"}, true},
		{"bad status", models.User{FullName: "x", Email: "b@x.io", Role: models.RoleSuperAdmin, Status: "paused"}, true},
		{"coordinator without city", models.User{FullName: "x", Email: "c@x.io", Role: models.RoleCityCoordinator}, true},
		{"supervisor without city", models.User{FullName: "x", Email: "d@x.io", Role: models.RoleActivistCoordinator}, true},
		{"supervisor with city", models.User{FullName: "x", Email: "e@x.io", Role: models.RoleActivistCoordinator, CityID: &city}, false},
		{"area manager", models.User{FullName: "x", Email: "f@x.io", Role: models.RoleAreaManager}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.user)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, models.User{FullName: "a", Email: "dup@x.io", Role: models.RoleSuperAdmin}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := s.Create(ctx, models.User{FullName: "b", Email: "DUP@x.io", Role: models.RoleSuperAdmin})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByIDs_PreservesOrderAndSkipsDisabled(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	city := primitive.NewObjectID()
	a, _ := s.Create(ctx, models.User{FullName: "א", Email: "a@x.io", Role: models.RoleActivistCoordinator, CityID: &city})
	b, _ := s.Create(ctx, models.User{FullName: "ב", Email: "b@x.io", Role: models.RoleActivistCoordinator, CityID: &city})
	c, _ := s.Create(ctx, models.User{FullName: "ג", Email: "c@x.io", Role: models.RoleActivistCoordinator, CityID: &city, Status: models.StatusDisabled})

	got, err := s.GetByIDs(ctx, []primitive.ObjectID{b.ID, c.ID, a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("GetByIDs = %+v", got)
	}

	list, _ := s.ListByRole(ctx, models.RoleActivistCoordinator, &city)
	if len(list) != 2 {
		t.Errorf("ListByRole = %d users, want 2", len(list))
	}
}

func TestStore_UpdateProfileAndPassword(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := s.Create(ctx, models.User{FullName: "רכז", Email: "r@x.io", Role: models.RoleAreaManager})
	other, _ := s.Create(ctx, models.User{FullName: "אחר", Email: "o@x.io", Role: models.RoleAreaManager})

	if err := s.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{FullName: "רכז ראשי", Email: "o@x.io"}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := s.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{FullName: "רכז ראשי", Email: "r2@x.io", Phone: "050"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := s.SetPassword(ctx, u.ID, "hash", true); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	got, _ := s.GetByID(ctx, u.ID)
	if got.FullName != "רכז ראשי" || got.Email != "r2@x.io" || got.PasswordHash != "hash" || !got.MustChangePassword {
		t.Errorf("after update: %+v", got)
	}

	exists, err := s.EmailExistsForOther(ctx, "o@x.io", u.ID)
	if err != nil || !exists {
		t.Errorf("EmailExistsForOther = %v, %v", exists, err)
	}
	exists, _ = s.EmailExistsForOther(ctx, "o@x.io", other.ID)
	if exists {
		t.Error("own email should not count")
	}
}

func TestStore_EnsureSuperAdmin(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := s.EnsureSuperAdmin(ctx, "Root@X.io", "")
	if err != nil || !created {
		t.Fatalf("first EnsureSuperAdmin = %v, %v", created, err)
	}
	created, err = s.EnsureSuperAdmin(ctx, "root@x.io", "")
	if err != nil || created {
		t.Fatalf("second EnsureSuperAdmin = %v, %v", created, err)
	}
	if created, _ := s.EnsureSuperAdmin(ctx, "", ""); created {
		t.Error("empty email should be a no-op")
	}
}

func TestFetcher(t *testing.T) {
	s, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr, _ := s.Create(ctx, models.User{FullName: "מנהל", Email: "m@x.io", Role: models.RoleAreaManager})
	area := fx.CreateArea(ctx, "צפון", &mgr.ID)
	off, _ := s.Create(ctx, models.User{FullName: "כבוי", Email: "off@x.io", Role: models.RoleAreaManager, Status: models.StatusDisabled})

	f := userstore.NewFetcher(db)

	su, err := f.FetchUser(ctx, mgr.ID.Hex())
	if err != nil || su == nil {
		t.Fatalf("FetchUser = %v, %v", su, err)
	}
	if su.Role != models.RoleAreaManager || su.AreaID != area.ID.Hex() || su.Email != "m@x.io" {
		t.Errorf("session user = %+v", su)
	}

	for _, id := range []string{off.ID.Hex(), primitive.NewObjectID().Hex(), "not-an-id"} {
		su, err := f.FetchUser(ctx, id)
		if err != nil || su != nil {
			t.Errorf("FetchUser(%q) = %v, %v; want nil, nil", id, su, err)
		}
	}
}

func TestStore_ListAndCount(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cityA, cityB := primitive.NewObjectID(), primitive.NewObjectID()
	mk := func(name, email, role string, city *primitive.ObjectID, status string) models.User {
		u, err := s.Create(ctx, models.User{FullName: name, Email: email, Role: role, CityID: city, Status: status})
		if err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
		return u
	}
	mk("אבי לוי", "avi@x.io", models.RoleCityCoordinator, &cityA, "")
	mk("בתיה כהן", "batya@x.io", models.RoleActivistCoordinator, &cityA, "")
	mk("גיל מזרחי", "gil@x.io", models.RoleCityCoordinator, &cityB, models.StatusDisabled)
	mk("דליה", "dalia@x.io", models.RoleAreaManager, nil, "")

	tests := []struct {
		name string
		f    userstore.ListFilter
		want []string
	}{
		{"all", userstore.ListFilter{}, []string{"avi@x.io", "batya@x.io", "gil@x.io", "dalia@x.io"}},
		{"role", userstore.ListFilter{Roles: []string{models.RoleCityCoordinator}}, []string{"avi@x.io", "gil@x.io"}},
		{"city scope", userstore.ListFilter{CityIDs: []primitive.ObjectID{cityA}}, []string{"avi@x.io", "batya@x.io"}},
		{"empty scope", userstore.ListFilter{CityIDs: []primitive.ObjectID{}}, nil},
		{"status", userstore.ListFilter{Status: models.StatusDisabled}, []string{"gil@x.io"}},
		{"name prefix", userstore.ListFilter{Search: "בת"}, []string{"batya@x.io"}},
		{"email prefix", userstore.ListFilter{Search: "DAL", ByEmail: true}, []string{"dalia@x.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.f, 0, 50)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d users, want %d", len(got), len(tt.want))
			}
			for i, u := range got {
				if u.Email != tt.want[i] {
					t.Errorf("row %d = %s, want %s", i, u.Email, tt.want[i])
				}
				if u.PasswordHash != "" {
					t.Error("password hash must not be loaded")
				}
			}
			n, err := s.Count(ctx, tt.f)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if n != int64(len(tt.want)) {
				t.Errorf("Count = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestStore_PromoteAndSetCity(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	city, other := primitive.NewObjectID(), primitive.NewObjectID()
	u, err := s.Create(ctx, models.User{FullName: "רכז", Email: "c@x.io", Role: models.RoleCityCoordinator, CityID: &city})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetCity(ctx, u.ID, other); err != nil {
		t.Fatalf("SetCity: %v", err)
	}
	got, _ := s.GetByID(ctx, u.ID)
	if got.CityID == nil || *got.CityID != other {
		t.Errorf("city = %v, want %v", got.CityID, other)
	}

	if err := s.PromoteSuperAdmin(ctx, u.ID); err != nil {
		t.Fatalf("PromoteSuperAdmin: %v", err)
	}
	got, _ = s.GetByID(ctx, u.ID)
	if got.Role != models.RoleSuperAdmin || got.CityID != nil {
		t.Errorf("after promote: role=%q city=%v", got.Role, got.CityID)
	}

	if err := s.SetCity(ctx, primitive.NewObjectID(), city); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("SetCity on missing user = %v, want ErrNoDocuments", err)
	}
}
