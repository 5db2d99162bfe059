// internal/app/features/neighborhoods/routes.go
package neighborhoods

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the neighborhood pages (at /neighborhoods). Supervisors
// may browse their own neighborhoods; changes need a coordinator or above.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/supervisors", h.HandleAssign)
		pr.Post("/{id}/supervisors/remove", h.HandleUnassign)
	})

	r.Get("/{id}", h.ServeView)
	return r
}
