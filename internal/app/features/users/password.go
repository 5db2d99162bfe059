// internal/app/features/users/password.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// HandleResetPassword processes POST /users/{id}/password. The user gets a
// new temporary password that must be changed at next sign-in. Own
// passwords are changed from the profile page.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	u, _, _, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	if isSelf(r, u.ID) {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	temp, err := authutil.TempPassword()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "temp password failed", err, "איפוס הסיסמה נכשל", "/users")
		return
	}
	hash, err := authutil.HashPassword(temp)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "איפוס הסיסמה נכשל", "/users")
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash, true); err != nil {
		h.ErrLog.LogServerError(w, r, "set password failed", err, "איפוס הסיסמה נכשל", "/users")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityUser, models.AuditUpdate, u.ID, u.CityID,
		nil, map[string]string{"password": "reset"})

	out := createdData{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email, TempPassword: temp, Reset: true}
	formutil.SetBase(&out.Base, r, h.DB, "איפוס סיסמה", "/users")
	templates.Render(w, r, "user_password", out)
}
