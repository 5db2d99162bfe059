// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the task pages at /tasks. Anyone signed in has a task
// list; coordinators and above hand tasks out.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
	})
	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/complete", h.HandleComplete)
	return r
}
