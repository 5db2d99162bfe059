// internal/app/features/wiki/routes.go
package wiki

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the help pages at /wiki.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeIndex)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleSuperAdmin))
		pr.Get("/new", h.ServeNew)
		pr.Get("/{slug}/edit", h.ServeEdit)
		pr.Post("/{slug}/edit", h.HandleEdit)
		pr.Post("/{slug}/delete", h.HandleDelete)
	})
	r.Get("/{slug}", h.ServePage)
	return r
}
