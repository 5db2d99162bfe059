// internal/app/features/users/view.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// recentLogins is how many sign-ins the user page shows.
const recentLogins = 10

type loginRow struct {
	When      string
	Provider  string
	IP        string
	UserAgent string
}

type viewData struct {
	viewdata.BaseVM
	ID         string
	FullName   string
	Email      string
	Phone      string
	Title      string
	Role       string
	City       string
	Disabled   bool
	MustChange bool
	Self       bool
	Logins     []loginRow
}

func providerLabel(p string) string {
	if p == authutil.MethodGoogle {
		return "Google"
	}
	return "סיסמה"
}

// ServeView handles GET /users/{id}: account details and recent sign-ins.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	u, _, _, ok := h.load(w, r, ctx)
	if !ok {
		return
	}

	data := viewData{
		BaseVM:     viewdata.NewBaseVM(r, h.DB, u.FullName, "/users"),
		ID:         u.ID.Hex(),
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		Title:      u.Title,
		Role:       models.RoleLabel(u.Role),
		Disabled:   u.Status == models.StatusDisabled,
		MustChange: u.MustChangePassword,
		Self:       isSelf(r, u.ID),
	}
	if u.CityID != nil {
		c, err := h.Cities.GetByID(ctx, *u.CityID)
		if err == nil {
			data.City = c.Name
		}
	}

	recs, err := h.Logins.ListForUser(ctx, u.ID, recentLogins)
	if err != nil {
		h.fail(w, r, "list logins failed", err)
		return
	}
	for _, rec := range recs {
		data.Logins = append(data.Logins, loginRow{
			When:      rec.CreatedAt.In(h.Loc).Format("02/01/2006 15:04"),
			Provider:  providerLabel(rec.Provider),
			IP:        rec.IP,
			UserAgent: rec.UserAgent,
		})
	}
	templates.Render(w, r, "user_view", data)
}
