package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "fieldops",
		CSRFKey:        strings.Repeat("k", 32),
		TimeZone:       "Asia/Jerusalem",
		WindowStart:    "06:00",
		WindowEnd:      "22:00",
		PollInterval:   time.Minute,
		FetchBatchSize: 1000,
		AuditLogAuth:   "all",
		AuditLogAdmin:  "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		env     string
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "bad uri", mutate: func(c *AppConfig) { c.MongoURI = "postgres://x" }, wantErr: "MongoDB URI"},
		{name: "bad zone", mutate: func(c *AppConfig) { c.TimeZone = "Mars/Olympus" }, wantErr: "time_zone"},
		{name: "bad window", mutate: func(c *AppConfig) { c.WindowEnd = "25:00" }, wantErr: "reporting window"},
		{name: "zero batch", mutate: func(c *AppConfig) { c.FetchBatchSize = 0 }, wantErr: "fetch_batch_size"},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAdmin = "loud" }, wantErr: "audit_log_admin"},
		{name: "short csrf key in prod", mutate: func(c *AppConfig) { c.CSRFKey = "short" }, env: "prod", wantErr: "csrf_key"},
		{name: "short csrf key in dev", mutate: func(c *AppConfig) { c.CSRFKey = "short" }, env: "dev"},
		{name: "google without secret", mutate: func(c *AppConfig) { c.GoogleClientID = "id" }, wantErr: "google_client_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			env := tt.env
			if env == "" {
				env = "dev"
			}
			err := ValidateConfig(&config.CoreConfig{Env: env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAppConfigLocation(t *testing.T) {
	if got := (AppConfig{}).Location(); got != time.UTC {
		t.Errorf("zero config location = %v, want UTC", got)
	}
	if got := validConfig().Location().String(); got != "Asia/Jerusalem" {
		t.Errorf("location = %q", got)
	}
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "Root@Test.Local", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "root@test.local"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("expected role superadmin, got %q", user.Role)
	}
	if user.Status != models.StatusActive {
		t.Errorf("expected status active, got %q", user.Status)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	org := fx.CreateOrg(ctx)
	existing := fx.CreateUser(ctx, "רכז עיר", "coord@test.local", models.RoleCityCoordinator, &org.City.ID)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "coord@test.local", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleSuperAdmin {
		t.Errorf("expected role superadmin, got %q", u.Role)
	}
	if u.CityID != nil {
		t.Error("expected city_id to be cleared after promotion")
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "מנהל", "root@test.local", models.RoleSuperAdmin, nil)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "root@test.local", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "root@test.local"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleSuperAdmin || u.FullName != "מנהל" {
		t.Errorf("existing superadmin changed: %+v", u)
	}
}

func TestWindowNotifier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	org := fx.CreateOrg(ctx)
	coord := fx.CreateUser(ctx, "רכזת", "coord@test.local", models.RoleCityCoordinator, &org.City.ID)

	notes := notificationstore.New(db)
	notify := windowNotifier(userstore.New(db), notes, testLogger())
	notify(context.Background(), timewindow.Transition{Open: true, At: time.Now()})

	got, err := notes.ListForUser(ctx, org.Supervisor.ID, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("supervisor notifications = %d, want 1", len(got))
	}
	if got[0].URL != "/attendance" || !strings.Contains(got[0].Title, "נפתח") {
		t.Errorf("unexpected notification %+v", got[0])
	}

	others, err := notes.ListForUser(ctx, coord.ID, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(others) != 0 {
		t.Errorf("coordinator got %d notifications, want 0", len(others))
	}
}
