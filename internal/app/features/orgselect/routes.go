// internal/app/features/orgselect/routes.go
package orgselect

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the HTMX cascade endpoints (at /cascade).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/select", h.ServeSelect)
		pr.Post("/quick", h.ServeQuickCreate)
	})
	return r
}

// NeighborhoodAPIRoutes mounts the supervisor list (at /api/neighborhoods).
func NeighborhoodAPIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{id}/supervisors", h.ListSupervisors)
	})
	return r
}

// SupervisorAPIRoutes mounts the quick-create action (at /api/supervisors).
func SupervisorAPIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/quick", h.QuickCreateSupervisor)
	})
	return r
}
