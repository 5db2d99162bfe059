// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler ends the staff session.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, SessionMgr: sessionMgr, AuditLog: audit}
}

// ServeLogout handles GET and POST /logout. Signing out an anonymous browser
// is harmless and still lands on the sign-in page.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID, u.Email)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if r.Header.Get("HX-Request") == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	// htmx swaps responses in place; HX-Redirect makes it navigate instead.
	w.Header().Set("HX-Redirect", "/login")
	w.WriteHeader(http.StatusOK)
}
