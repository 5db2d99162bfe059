// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	nav "github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

func baseData(r *http.Request) pageData {
	u, signed := auth.CurrentUser(r)
	d := pageData{IsLoggedIn: signed}
	if signed {
		d.Role, d.UserName = u.Role, u.Name
	}
	return d
}

// RenderUnauthorized shows a friendly “sign in required” page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	data := baseData(r)
	data.Title = "נדרשת התחברות"
	data.Message = "יש להתחבר כדי להמשיך."
	data.BackURL = backURL

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	data := baseData(r)
	data.Title = "אין הרשאה"
	data.Message = msg
	data.BackURL = backURL

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_forbidden", data)
}

// RenderNotFound shows the not-found page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	data := baseData(r)
	data.Title = "לא נמצא"
	data.Message = "הפריט המבוקש לא נמצא או שנמחק."
	data.BackURL = backURL

	w.WriteHeader(http.StatusNotFound)
	templates.Render(w, r, "error_page", data)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, title, msg, ref, backURL string) {
	data := baseData(r)
	data.Title = title
	data.Message = msg
	data.Reference = ref
	data.BackURL = backURL

	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
