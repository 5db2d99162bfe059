// internal/app/features/errors/errors.go
package errors

import "net/http"

// pageData feeds error_page and error_forbidden.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	Reference  string
	BackURL    string
}

// Handler serves the standalone error pages the auth middleware redirects
// to, and the router's not-found fallback.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// Forbidden handles GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "אין לך הרשאה לצפות בעמוד זה.", "/")
}

// Unauthorized handles GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "/login")
}

// NotFound is installed as the router's fallback.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "/")
}
