// internal/app/features/neighborhoods/list.go
package neighborhoods

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cityOption struct {
	ID       string
	Name     string
	Selected bool
}

type listItem struct {
	ID          string
	Name        string
	Address     string
	CityName    string
	Supervisors string
	Workers     int64
}

type listData struct {
	viewdata.BaseVM
	Cities    []cityOption
	Items     []listItem
	CanManage bool
}

// ServeList handles GET /neighborhoods[?city=<id>].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return
	}
	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		h.fail(w, r, "load hierarchy failed", err)
		return
	}

	selected := normalize.FilterID(query.Get(r, "city"))
	cityNames := make(map[primitive.ObjectID]string, len(hier.Cities))
	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "שכונות", "/dashboard"),
		CanManage: authz.CanManageWorkers(r),
	}
	for _, c := range hier.Cities {
		cityNames[c.ID] = c.Name
		data.Cities = append(data.Cities, cityOption{ID: c.ID.Hex(), Name: c.Name, Selected: c.ID.Hex() == selected})
	}

	var ids []primitive.ObjectID
	for _, n := range hier.Neighborhoods {
		if selected == "" || n.CityID.Hex() == selected {
			ids = append(ids, n.ID)
		}
	}
	assigns, err := h.Assign.ListByNeighborhoods(ctx, ids)
	if err != nil {
		h.fail(w, r, "list assignments failed", err)
		return
	}
	var supIDs []primitive.ObjectID
	for _, a := range assigns {
		supIDs = append(supIDs, a.UserID)
	}
	sups, err := h.Users.GetByIDs(ctx, supIDs)
	if err != nil {
		h.fail(w, r, "load supervisors failed", err)
		return
	}
	supNames := make(map[primitive.ObjectID]string, len(sups))
	for _, u := range sups {
		supNames[u.ID] = u.FullName
	}
	byNeighborhood := map[primitive.ObjectID][]string{}
	for _, a := range assigns {
		if name, ok := supNames[a.UserID]; ok {
			byNeighborhood[a.NeighborhoodID] = append(byNeighborhood[a.NeighborhoodID], name)
		}
	}

	workers, err := orgutil.CountBy(ctx, h.DB, "workers", bson.M{"status": models.StatusActive}, "neighborhood_id")
	if err != nil {
		h.fail(w, r, "count workers failed", err)
		return
	}

	for _, n := range hier.Neighborhoods {
		if selected != "" && n.CityID.Hex() != selected {
			continue
		}
		names := byNeighborhood[n.ID]
		sort.Strings(names)
		data.Items = append(data.Items, listItem{
			ID:          n.ID.Hex(),
			Name:        n.Name,
			Address:     n.Address,
			CityName:    cityNames[n.CityID],
			Supervisors: strings.Join(names, ", "),
			Workers:     workers[n.ID],
		})
	}
	templates.Render(w, r, "neighborhood_list", data)
}
