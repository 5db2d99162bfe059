package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/app/features/logout"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.uber.org/zap"
)

func newSessionMgr(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestServeLogout_RedirectsToLogin(t *testing.T) {
	handler := logout.NewHandler(newSessionMgr(t), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, httptest.NewRequest("GET", "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location: got %q, want %q", loc, "/login")
	}
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	handler := logout.NewHandler(newSessionMgr(t), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, httptest.NewRequest("GET", "/logout", nil))

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge = %d, want negative", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected a deletion cookie")
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	handler := logout.NewHandler(newSessionMgr(t), nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestServeLogout_Audited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	al := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB})
	handler := logout.NewHandler(newSessionMgr(t), al, zap.NewNop())

	u := testutil.SuperAdmin()
	req := testutil.WithUser(httptest.NewRequest("POST", "/logout", nil), u)
	handler.ServeLogout(httptest.NewRecorder(), req)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	entries, err := store.Query(ctx, audit.QueryFilter{Action: models.AuditLogout})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].UserEmail != u.Email || entries[0].EntityID.Hex() != u.ID {
		t.Errorf("entries = %+v", entries)
	}
}
