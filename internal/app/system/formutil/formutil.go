// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form should be re-rendered with:
// - The user's previously entered values (echoed back)
// - An error message explaining what went wrong
// - All the context data needed for the form (dropdowns, etc.)
//
// This package provides a Base struct that can be embedded in form data structs
// to handle the common fields, and helper functions to populate them.
//
// Example usage:
//
//	type newWorkerData struct {
//		formutil.Base
//		FullName string
//		Phone    string
//		Cities   []cityOption
//	}
//
//	// In your handler:
//	data := newWorkerData{FullName: full, Phone: phone}
//	formutil.SetBase(&data.Base, r, h.DB, "עובד חדש", "/workers")
//	data.SetError("שם מלא הוא שדה חובה.")
//	templates.Render(w, r, "worker_form", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/mongo"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error       template.HTML
	FieldErrors map[string]string
}

// SetBase populates the common Base fields from the request context.
//
// Parameters:
//   - b: pointer to the Base struct to populate
//   - r: the HTTP request
//   - db: database for the unread-notification badge (may be nil)
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func SetBase(b *Base, r *http.Request, db *mongo.Database, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, db, title, backDefault)
}

// SetError sets the error message on a Base struct.
// This is a convenience method for setting Error as template.HTML.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// SetInvalid copies a failed validation result onto the form: the first
// message becomes the banner and every message stays keyed by field.
func (b *Base) SetInvalid(res inputval.Result) {
	if !res.HasErrors() {
		return
	}
	b.FieldErrors = res.ByField()
	b.SetError(res.First())
}
