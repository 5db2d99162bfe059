// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	loginstore "github.com/dalemusser/fieldops/internal/app/store/logins"
	"github.com/dalemusser/fieldops/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds the round trip to Google's consent screen.
const stateTTL = 10 * time.Minute

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Handler signs existing staff accounts in with Google. Accounts are matched
// by email; Google sign-in never creates users.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Users      *userstore.Store
	Logins     *loginstore.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://fieldops.example.org/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them elsewhere.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		AuditLog:     audit,
		StateStore:   oauthstate.New(db),
		Users:        userstore.New(db),
		Logins:       loginstore.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured reports whether client credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// bounce sends the browser back to the sign-in page with a reason code the
// login template turns into a Hebrew message.
func bounce(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/login?error="+reason, http.StatusSeeOther)
}

// ServeLogin handles GET /auth/google.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("google sign-in requested but not configured")
		bounce(w, r, "google_not_configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	state, err := h.StateStore.Issue(ctx, query.Get(r, "return"), stateTTL)
	if err != nil {
		h.Log.Error("google sign-in: issue state", zap.Error(err))
		bounce(w, r, "internal")
		return
	}
	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback. Only existing, active
// staff accounts with a verified Google email are signed in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.Log.Warn("google sign-in refused at consent", zap.String("error", e), zap.String("description", q.Get("error_description")))
		bounce(w, r, "google_denied")
		return
	}
	state, code := q.Get("state"), q.Get("code")
	if state == "" {
		bounce(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnTo, ok, err := h.StateStore.Redeem(ctx, state)
	switch {
	case err != nil:
		h.Log.Error("google sign-in: redeem state", zap.Error(err))
		bounce(w, r, "internal")
		return
	case !ok:
		h.Log.Warn("google sign-in: unknown or expired state")
		bounce(w, r, "invalid_state")
		return
	case code == "":
		bounce(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("google sign-in: code exchange", zap.Error(err))
		bounce(w, r, "token_exchange")
		return
	}
	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("google sign-in: userinfo", zap.Error(err))
		bounce(w, r, "user_info")
		return
	}

	u, reason, cause := h.account(ctx, info)
	if u == nil {
		if cause != "" {
			h.AuditLog.LoginFailed(ctx, r, normalize.Email(info.Email), cause)
		}
		bounce(w, r, reason)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("google sign-in: save session", zap.Error(err), zap.String("email", u.Email))
		bounce(w, r, "session")
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email, authutil.MethodGoogle)
	h.recordLogin(ctx, r, u.ID, authutil.MethodGoogle)
	h.Log.Info("signed in with google", zap.String("user_id", u.ID.Hex()))

	// A verified Google identity skips the temporary-password prompt.
	http.Redirect(w, r, urlutil.SafeReturn(returnTo, "", "/dashboard"), http.StatusSeeOther)
}

// account finds the active staff user for a Google identity. On failure it
// returns nil, the bounce reason and, for refusals worth auditing, the cause.
func (h *Handler) account(ctx context.Context, info *googleUserInfo) (u *models.User, reason, cause string) {
	email := normalize.Email(info.Email)
	if email == "" || !info.EmailVerified {
		return nil, "no_account", "google_unverified_email"
	}
	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Info("google sign-in: no staff account", zap.String("email", email))
		return nil, "no_account", "user_not_found"
	case err != nil:
		h.Log.Error("google sign-in: user lookup", zap.Error(err))
		return nil, "internal", ""
	case normalize.Status(u.Status) == models.StatusDisabled:
		return nil, "account_disabled", "user_disabled"
	}
	return u, "", ""
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)).Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("userinfo decode: %w", err)
	}
	return &info, nil
}

// recordLogin appends to the user's sign-in history. Failures never block
// the sign-in.
func (h *Handler) recordLogin(ctx context.Context, r *http.Request, uid primitive.ObjectID, provider string) {
	if h.Logins == nil {
		return
	}
	if err := h.Logins.CreateFrom(ctx, r, uid, provider); err != nil {
		h.Log.Warn("google sign-in: record history", zap.String("user_id", uid.Hex()), zap.Error(err))
	}
}
