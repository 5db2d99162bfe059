// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature (at /dashboard). The handler picks
// the view from the signed-in user's role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})
	return r
}
