package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func TestGuards(t *testing.T) {
	sm := newTestSessionManager(t)
	signedIn := sm.RequireSignedIn
	orgOnly := sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager)

	tests := []struct {
		name     string
		guard    func(http.Handler) http.Handler
		role     string // "" means anonymous
		headers  map[string]string
		wantCode int
		wantLoc  string // prefix of Location or HX-Redirect
	}{
		{"anonymous page", signedIn, "", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "/login"},
		{"anonymous json", signedIn, "", map[string]string{"Accept": "application/json"}, http.StatusUnauthorized, ""},
		{"anonymous htmx", signedIn, "", map[string]string{"HX-Request": "true"}, http.StatusUnauthorized, "/login"},
		{"signed in", signedIn, models.RoleActivistCoordinator, nil, http.StatusOK, ""},
		{"role anonymous", orgOnly, "", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "/login"},
		{"supervisor on org page", orgOnly, models.RoleActivistCoordinator, map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "/forbidden"},
		{"coordinator on org page", orgOnly, models.RoleCityCoordinator, map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "/forbidden"},
		{"supervisor json", orgOnly, models.RoleActivistCoordinator, map[string]string{"Accept": "application/json"}, http.StatusForbidden, ""},
		{"superadmin", orgOnly, models.RoleSuperAdmin, nil, http.StatusOK, ""},
		{"area manager", orgOnly, models.RoleAreaManager, nil, http.StatusOK, ""},
		{"role case folded", orgOnly, "SUPERADMIN", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			h := tt.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))
			req := httptest.NewRequest("GET", "/cities", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.role != "" {
				req = withTestUser(req, tt.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if reached != (tt.wantCode == http.StatusOK) {
				t.Errorf("handler reached = %v", reached)
			}
			loc := rec.Header().Get("Location") + rec.Header().Get("HX-Redirect")
			if !strings.HasPrefix(loc, tt.wantLoc) {
				t.Errorf("redirect = %q, want prefix %q", loc, tt.wantLoc)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if u, ok := auth.CurrentUser(req); ok || u != nil {
		t.Errorf("anonymous CurrentUser = %+v, %v", u, ok)
	}
	u, ok := auth.CurrentUser(withTestUser(req, models.RoleCityCoordinator))
	if !ok || u.Role != models.RoleCityCoordinator {
		t.Errorf("CurrentUser = %+v, %v", u, ok)
	}
}

// withTestUser injects a SessionUser into the request context for testing.
// This simulates what LoadSessionUser middleware does.
func withTestUser(r *http.Request, role string) *http.Request {
	user := &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011", // Valid ObjectID hex
		Name:  "משתמש בדיקה",
		Email: "test@example.com",
		Role:  role,
	}
	return auth.WithTestUser(r, user)
}

type stubFetcher struct {
	user *auth.SessionUser
	err  error
}

func (f stubFetcher) FetchUser(ctx context.Context, id string) (*auth.SessionUser, error) {
	return f.user, f.err
}

func signedInCookie(t *testing.T, sm *auth.SessionManager) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, "507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}
	return cookies[0]
}

func TestLoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{user: &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "דנה", Role: "superadmin"}})

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(signedInCookie(t, sm))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Name != "דנה" {
		t.Fatalf("CurrentUser = %+v", got)
	}
}

func TestLoadSessionUser_DisabledUserIsSignedOut(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{})

	found := true
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(signedInCookie(t, sm))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected no user for a fetcher that returns nil")
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(signedInCookie(t, sm))

	if err := sm.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %q MaxAge = %d, want negative", c.Name, c.MaxAge)
		}
	}
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestGenerateKey(t *testing.T) {
	a, b := auth.GenerateKey(), auth.GenerateKey()
	if len(a) != 64 || a == b {
		t.Errorf("GenerateKey = %q, %q", a, b)
	}
}
