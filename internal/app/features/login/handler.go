// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	loginstore "github.com/dalemusser/fieldops/internal/app/store/logins"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Users         *userstore.Store
	Logins        *loginstore.Store
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool // True if Google OAuth is configured
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

type changePasswordFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	Forced        bool   // first login with a temporary password
	PasswordRules string // Rules to display to user
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		Users:         userstore.New(db),
		Logins:        loginstore.New(db),
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, nil, "התחברות", "/"),
		ReturnURL:     query.Get(r, "return"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "נתוני הטופס אינם תקינים.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "יש להזין אימייל וסיסמה.", email, ret)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(r.Context(), r, email, "rate_limited")
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, reason, email, ret)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.AuditLog.LoginFailed(ctx, r, email, "user_not_found")
		h.renderFormWithError(w, r, "האימייל או הסיסמה שגויים.", email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "אירעה שגיאת שרת.", "/login")
		return
	}

	/*── check status: disabled users cannot log in ────────────────────────*/

	if normalize.Status(u.Status) == models.StatusDisabled {
		h.AuditLog.LoginFailed(ctx, r, email, "user_disabled")
		h.renderFormWithError(w, r, "החשבון מושבת. פנו למנהל המערכת.", email, ret)
		return
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		reason := "bad_password"
		if u.PasswordHash == "" {
			reason = "no_password"
		}
		h.AuditLog.LoginFailed(ctx, r, email, reason)
		h.renderFormWithError(w, r, "האימייל או הסיסמה שגויים.", email, ret)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", email))
		h.renderFormWithError(w, r, "לא ניתן ליצור חיבור. נסו שוב.", email, ret)
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email, authutil.MethodPassword)
	h.recordLogin(ctx, r, u.ID, authutil.MethodPassword)

	dest := urlutil.SafeReturn(ret, "", "/dashboard")
	if u.MustChangePassword {
		dest = "/login/password?return=" + url.QueryEscape(dest)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, returnURL string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, nil, "התחברות", "/"),
		Error:         msg,
		Email:         email,
		ReturnURL:     returnURL,
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /login/password (signed in)                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load user", err, "אירעה שגיאת שרת.", "/dashboard")
		return
	}

	templates.Render(w, r, "change_password", changePasswordFormData{
		BaseVM:        viewdata.NewBaseVM(r, h.DB, "החלפת סיסמה", "/dashboard"),
		Email:         u.Email,
		ReturnURL:     query.Get(r, "return"),
		Forced:        u.MustChangePassword,
		PasswordRules: authutil.PasswordRules(),
	})
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "נתוני הטופס אינם תקינים.", "/login/password")
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	ret := strings.TrimSpace(r.FormValue("return"))
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load user", err, "אירעה שגיאת שרת.", "/dashboard")
		return
	}

	fail := func(msg string) {
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "change_password", changePasswordFormData{
			BaseVM:        viewdata.NewBaseVM(r, h.DB, "החלפת סיסמה", "/dashboard"),
			Error:         msg,
			Email:         u.Email,
			ReturnURL:     ret,
			Forced:        u.MustChangePassword,
			PasswordRules: authutil.PasswordRules(),
		})
	}

	if u.PasswordHash != "" && !authutil.CheckPassword(current, u.PasswordHash) {
		fail("הסיסמה הנוכחית שגויה.")
		return
	}
	if err := authutil.ValidatePassword(next); err != nil {
		fail(authutil.PasswordMessage(err))
		return
	}
	if next != confirm {
		fail("הסיסמאות אינן תואמות.")
		return
	}
	if next == current {
		fail("הסיסמה החדשה חייבת להיות שונה מהנוכחית.")
		return
	}

	hash, err := authutil.HashPassword(next)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "אירעה שגיאת שרת.", "/login/password")
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash, false); err != nil {
		h.ErrLog.LogServerError(w, r, "DB set password", err, "אירעה שגיאת שרת.", "/login/password")
		return
	}
	h.AuditLog.Changed(ctx, r, u.Email, models.EntityUser, models.AuditUpdate, u.ID, u.CityID,
		nil, map[string]string{"password": "changed"})

	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

// recordLogin adds the sign-in to the user's history. Failures are logged
// and never block the sign-in.
func (h *Handler) recordLogin(ctx context.Context, r *http.Request, uid primitive.ObjectID, provider string) {
	if h.Logins == nil {
		return
	}
	if err := h.Logins.CreateFrom(ctx, r, uid, provider); err != nil {
		h.Log.Warn("login history insert failed", zap.String("user_id", uid.Hex()), zap.Error(err))
	}
}
