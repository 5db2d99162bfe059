// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/paging"
	"github.com/dalemusser/fieldops/internal/app/system/search"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type roleOption struct {
	Value    string
	Label    string
	Selected bool
}

type userRow struct {
	ID        string
	FullName  string
	Email     string
	Role      string
	City      string
	LastLogin string
	Disabled  bool
	CanManage bool
}

type listData struct {
	viewdata.BaseVM
	Roles     []roleOption
	Status    string
	Search    string
	Rows      []userRow
	Pager     paging.Pager
	CanCreate bool
}

// listFilter turns the request filters into a store filter limited to the
// caller's roles and cities. An unknown role filter matches nothing.
func listFilter(r *http.Request, actor string, sc orgutil.Scope) userstore.ListFilter {
	f := userstore.ListFilter{
		Roles:   visibleRoles(actor),
		CityIDs: listCities(actor, sc),
		Status:  normalize.Status(query.Get(r, "status")),
		Search:  normalize.QueryParam(query.Get(r, "q")),
	}
	if role := normalize.Role(query.Get(r, "role")); role != "" && role != "all" {
		if f.Roles == nil || allowed(role, f.Roles) {
			f.Roles = []string{role}
		} else {
			f.Roles = []string{""}
		}
	}
	f.ByEmail = search.EmailPivot(f.Search, f.Status)
	return f
}

// ServeList handles GET /users[?role=&status=&q=&start=].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, _ := authz.Role(r)
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return
	}

	start := paging.ParseStart(r)
	f := listFilter(r, actor, sc)
	total, err := h.Users.Count(ctx, f)
	if err != nil {
		h.fail(w, r, "count users failed", err)
		return
	}
	list, err := h.Users.List(ctx, f, paging.Skip(start), paging.LimitPlusOne())
	if err != nil {
		h.fail(w, r, "list users failed", err)
		return
	}
	pg := paging.TrimPage(&list, start)

	ids := make([]primitive.ObjectID, 0, len(list))
	var cityIDs []primitive.ObjectID
	for _, u := range list {
		ids = append(ids, u.ID)
		if u.CityID != nil {
			cityIDs = append(cityIDs, *u.CityID)
		}
	}
	last, err := h.Logins.LastLogins(ctx, ids)
	if err != nil {
		h.fail(w, r, "load last logins failed", err)
		return
	}
	cityNames := map[primitive.ObjectID]string{}
	if len(cityIDs) > 0 {
		cities, err := h.Cities.GetByIDs(ctx, cityIDs)
		if err != nil {
			h.fail(w, r, "load cities failed", err)
			return
		}
		for _, c := range cities {
			cityNames[c.ID] = c.Name
		}
	}

	roleParam := query.Get(r, "role")
	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "משתמשים", "/dashboard"),
		Status:    f.Status,
		Search:    f.Search,
		CanCreate: len(creatableRoles(actor)) > 0,
	}
	roles := visibleRoles(actor)
	if roles == nil {
		roles = []string{models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator, models.RoleActivistCoordinator}
	}
	for _, role := range roles {
		data.Roles = append(data.Roles, roleOption{Value: role, Label: models.RoleLabel(role), Selected: role == roleParam})
	}
	for _, u := range list {
		row := userRow{
			ID:        u.ID.Hex(),
			FullName:  u.FullName,
			Email:     u.Email,
			Role:      models.RoleLabel(u.Role),
			Disabled:  u.Status == models.StatusDisabled,
			CanManage: canManage(actor, sc, u),
		}
		if u.CityID != nil {
			row.City = cityNames[*u.CityID]
		}
		if t, ok := last[u.ID]; ok {
			row.LastLogin = t.In(h.Loc).Format("02/01/2006 15:04")
		}
		data.Rows = append(data.Rows, row)
	}
	data.Pager = paging.NewPager(r, start, len(list), total, pg)
	templates.Render(w, r, "user_list", data)
}
