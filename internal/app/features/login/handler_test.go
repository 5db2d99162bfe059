package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/login"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h        *login.Handler
	fixtures *testutil.Fixtures
	audit    *audit.Store
	users    *userstore.Store
}

func newTestHandler(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger, nil)

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	auditStore := audit.New(db)
	al := auditlog.New(auditStore, logger, auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB})
	limiter := ratelimit.NewLoginLimiterWith(ratelimit.Budget{Attempts: 100, Per: time.Minute}, ratelimit.Budget{Attempts: 3, Per: time.Minute})
	t.Cleanup(limiter.Close)

	h := login.NewHandler(db, sessionMgr, errLog, al, limiter, false, logger)
	return env{h: h, fixtures: testutil.NewFixtures(t, db), audit: auditStore, users: userstore.New(db)}
}

func (e env) userWithPassword(t *testing.T, email, password string, mustChange bool) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fixtures.CreateUser(ctx, "משתמש בדיקה", email, models.RoleSuperAdmin, nil)
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := e.users.SetPassword(ctx, u.ID, hash, mustChange); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	return u
}

func post(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := testutil.NewFormRequest("/login", form)
	rec := httptest.NewRecorder()
	// Failure paths render templates, which panic without an engine.
	func() {
		defer func() { recover() }()
		h(rec, req)
	}()
	return rec
}

func hasCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (e env) auditActions(t *testing.T) []string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	entries, err := e.audit.Query(ctx, audit.QueryFilter{Entity: models.EntitySession})
	if err != nil {
		t.Fatalf("audit Query: %v", err)
	}
	var out []string
	for _, en := range entries {
		out = append(out, en.Action+":"+en.After["reason"])
	}
	return out
}

func TestHandleLoginPost_Success(t *testing.T) {
	e := newTestHandler(t)
	e.userWithPassword(t, "admin@example.com", "Sup3rSecret", false)

	rec := post(e.h.HandleLoginPost, url.Values{"email": {"Admin@Example.com"}, "password": {"Sup3rSecret"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q, want %q", loc, "/dashboard")
	}
	if !hasCookie(rec, "test-session") {
		t.Error("expected session cookie to be set")
	}
	if got := e.auditActions(t); len(got) != 1 || got[0] != models.AuditLogin+":" {
		t.Errorf("audit = %v", got)
	}
}

func TestHandleLoginPost_WithReturnURL(t *testing.T) {
	e := newTestHandler(t)
	e.userWithPassword(t, "admin@example.com", "Sup3rSecret", false)

	rec := post(e.h.HandleLoginPost, url.Values{
		"email": {"admin@example.com"}, "password": {"Sup3rSecret"}, "return": {"/attendance/history"},
	})
	if loc := rec.Header().Get("Location"); loc != "/attendance/history" {
		t.Errorf("Location: got %q, want %q", loc, "/attendance/history")
	}
}

func TestHandleLoginPost_MustChangePassword(t *testing.T) {
	e := newTestHandler(t)
	e.userWithPassword(t, "new@example.com", "TempPass77", true)

	rec := post(e.h.HandleLoginPost, url.Values{"email": {"new@example.com"}, "password": {"TempPass77"}})
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/login/password?return=") {
		t.Errorf("Location = %q, want change-password redirect", loc)
	}
}

func TestHandleLoginPost_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		reason string
	}{
		{"unknown email", url.Values{"email": {"nobody@example.com"}, "password": {"whatever1"}}, "user_not_found"},
		{"wrong password", url.Values{"email": {"admin@example.com"}, "password": {"wrong-one"}}, "bad_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestHandler(t)
			e.userWithPassword(t, "admin@example.com", "Sup3rSecret", false)

			rec := post(e.h.HandleLoginPost, tt.form)
			if rec.Code == http.StatusSeeOther {
				t.Fatal("rejected login must not redirect")
			}
			if hasCookie(rec, "test-session") {
				t.Error("rejected login must not set a session")
			}
			got := e.auditActions(t)
			if len(got) != 1 || got[0] != models.AuditLoginFailed+":"+tt.reason {
				t.Errorf("audit = %v", got)
			}
		})
	}
}

func TestHandleLoginPost_DisabledUser(t *testing.T) {
	e := newTestHandler(t)
	u := e.userWithPassword(t, "off@example.com", "Sup3rSecret", false)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := e.users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		FullName: u.FullName, Email: u.Email, Status: models.StatusDisabled,
	}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	rec := post(e.h.HandleLoginPost, url.Values{"email": {"off@example.com"}, "password": {"Sup3rSecret"}})
	if rec.Code == http.StatusSeeOther {
		t.Error("disabled user must not sign in")
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	e := newTestHandler(t)
	e.userWithPassword(t, "admin@example.com", "Sup3rSecret", false)

	for i := 0; i < 3; i++ {
		post(e.h.HandleLoginPost, url.Values{"email": {"admin@example.com"}, "password": {"nope-nope"}})
	}
	// Even the right password is refused once the email budget is spent.
	rec := post(e.h.HandleLoginPost, url.Values{"email": {"admin@example.com"}, "password": {"Sup3rSecret"}})
	if rec.Code == http.StatusSeeOther {
		t.Error("expected rate limiting")
	}
}

func TestHandleChangePassword(t *testing.T) {
	e := newTestHandler(t)
	u := e.userWithPassword(t, "new@example.com", "TempPass77", true)

	doPost := func(form url.Values) *httptest.ResponseRecorder {
		req := testutil.WithUser(testutil.NewFormRequest("/login/password", form), testutil.TestUser{
			ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role,
		})
		rec := httptest.NewRecorder()
		func() {
			defer func() { recover() }()
			e.h.HandleChangePassword(rec, req)
		}()
		return rec
	}

	if rec := doPost(url.Values{"current_password": {"TempPass77"}, "new_password": {"abc"}, "confirm_password": {"abc"}}); rec.Code == http.StatusSeeOther {
		t.Error("short password should be rejected")
	}
	if rec := doPost(url.Values{"current_password": {"bad"}, "new_password": {"Fresh-pass-9"}, "confirm_password": {"Fresh-pass-9"}}); rec.Code == http.StatusSeeOther {
		t.Error("wrong current password should be rejected")
	}
	rec := doPost(url.Values{"current_password": {"TempPass77"}, "new_password": {"Fresh-pass-9"}, "confirm_password": {"Fresh-pass-9"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := e.users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.MustChangePassword || !authutil.CheckPassword("Fresh-pass-9", got.PasswordHash) {
		t.Errorf("password not updated: mustChange=%v", got.MustChangePassword)
	}
}
