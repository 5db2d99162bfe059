// internal/app/features/cities/routes.go
package cities

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the city pages (at /cities).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator))
		pr.Get("/", h.ServeList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
	})
	return r
}
