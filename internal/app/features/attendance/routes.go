// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the attendance pages (at /attendance).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeBoard)
		pr.Get("/history", h.ServeHistory)
		pr.Get("/export.xlsx", h.ServeExport)
	})
	return r
}

// APIRoutes mounts the attendance actions (at /api/attendance).
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.RecordCheckIn)
		pr.Get("/history", h.FetchHistory)
		pr.Get("/window", h.WindowStatus)
		pr.Post("/{id}/edit", h.EditCheckIn)
		pr.Post("/{id}/delete", h.DeleteCheckIn)
	})
	return r
}
