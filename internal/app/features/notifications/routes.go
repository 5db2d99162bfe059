// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the inbox at /notifications. Every signed-in user has one.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.List)
	r.Post("/read-all", h.MarkAllRead)
	r.Post("/{id}/read", h.MarkRead)
	r.Post("/push/subscribe", h.Subscribe)
	r.Post("/push/unsubscribe", h.Unsubscribe)
	return r
}
