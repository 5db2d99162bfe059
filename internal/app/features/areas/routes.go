// internal/app/features/areas/routes.go
package areas

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the area pages (at /areas).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager))
		pr.Get("/", h.ServeList)
	})

	// Only superadmins change the top of the hierarchy.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSuperAdmin))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/delete", h.HandleDelete)
	})
	return r
}
