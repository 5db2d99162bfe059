// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Window timewindow.Window

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, window timewindow.Window, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Window: window,
		Now:    time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// ServeDashboard dispatches to the view of the signed-in user's role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch role {
	case models.RoleSuperAdmin:
		h.ServeSuperAdmin(w, r)
	case models.RoleAreaManager, models.RoleCityCoordinator:
		h.ServeManager(w, r)
	case models.RoleActivistCoordinator:
		h.ServeSupervisor(w, r)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
