// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log viewer (at /audit). Managers see entries for
// the cities in their scope; superadmins see everything.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator))
	r.Get("/", h.ServeList)
	return r
}
