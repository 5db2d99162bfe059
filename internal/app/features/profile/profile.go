// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type profileInput struct {
	FullName string `form:"full_name" validate:"required,max=100" label:"שם מלא"`
	Phone    string `form:"phone" validate:"omitempty,phone" label:"טלפון"`
}

// profileData is the view model for the profile page.
type profileData struct {
	formutil.Base

	Email     string
	RoleLabel string
	Input     profileInput
	Success   string
	SignIns   []string
}

// ownSignIns is how many of the caller's recent sign-ins the page lists.
const ownSignIns = 5

func (h *Handler) render(w http.ResponseWriter, r *http.Request, u *models.User, in profileInput, apply func(*profileData)) {
	data := profileData{
		Email:     u.Email,
		RoleLabel: models.RoleLabel(u.Role),
		Input:     in,
	}
	formutil.SetBase(&data.Base, r, h.DB, "הפרופיל שלי", "/dashboard")
	recs, err := h.Logins.ListForUser(r.Context(), u.ID, ownSignIns)
	if err != nil {
		h.Log.Warn("profile: list sign-ins", zap.Error(err))
	}
	for _, rec := range recs {
		data.SignIns = append(data.SignIns, rec.CreatedAt.In(h.Loc).Format("02/01/2006 15:04")+" · "+rec.IP)
	}
	if apply != nil {
		apply(&data)
	}
	templates.Render(w, r, "profile", data)
}

// ServeProfile renders the user's profile page.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "טעינת הפרופיל נכשלה", "/dashboard")
		return
	}
	h.render(w, r, u, profileInput{FullName: u.FullName, Phone: u.Phone}, func(d *profileData) {
		if r.URL.Query().Get("success") == "1" {
			d.Success = "הפרטים נשמרו."
		}
	})
}

// HandleUpdate saves the caller's name and phone. Email, role and
// placement are managed by coordinators.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	var in profileInput
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bind profile failed", err, "נתוני הטופס אינם תקינים", "/profile")
		return
	}
	in.FullName = normalize.Name(in.FullName)
	in.Phone = normalize.Phone(in.Phone)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "שמירת הפרופיל נכשלה", "/profile")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.render(w, r, u, in, func(d *profileData) { d.SetInvalid(res) })
		return
	}

	err = h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		FullName: in.FullName,
		Email:    u.Email,
		Phone:    in.Phone,
		Title:    u.Title,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "שמירת הפרופיל נכשלה", "/profile")
		return
	}
	h.AuditLog.Changed(ctx, r, u.Email, models.EntityUser, models.AuditUpdate, u.ID, u.CityID,
		map[string]string{"full_name": u.FullName, "phone": u.Phone},
		map[string]string{"full_name": in.FullName, "phone": in.Phone})
	http.Redirect(w, r, "/profile?success=1", http.StatusSeeOther)
}
