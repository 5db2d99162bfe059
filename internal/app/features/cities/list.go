// internal/app/features/cities/list.go
package cities

import (
	"context"
	"net/http"

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

type listItem struct {
	ID            string
	Name          string
	Code          string
	AreaName      string
	Neighborhoods int64
	Workers       int64
}

type areaOption struct {
	ID       string
	Name     string
	Selected bool
}

type listData struct {
	viewdata.BaseVM
	Areas     []areaOption
	Items     []listItem
	CanManage bool
}

// ServeList handles GET /cities[?area=<id>].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc, err := h.scope(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "טעינת הערים נכשלה", "/dashboard")
		return
	}
	areas, err := h.Areas.List(ctx, sc.AreaFilter())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list areas failed", err, "טעינת הערים נכשלה", "/dashboard")
		return
	}

	areaFilter := sc.AreaFilter()
	selected := normalize.FilterID(query.Get(r, "area"))
	if id, ok := normalize.ObjectID(selected); ok && sc.HasArea(id) {
		areaFilter = []primitive.ObjectID{id}
	} else {
		selected = ""
	}

	list, err := h.Cities.ListByAreas(ctx, areaFilter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list cities failed", err, "טעינת הערים נכשלה", "/dashboard")
		return
	}
	// Coordinators are scoped below the area level.
	if f := sc.CityFilter(); f != nil {
		allowed := make(map[primitive.ObjectID]bool, len(f))
		for _, id := range f {
			allowed[id] = true
		}
		kept := list[:0]
		for _, c := range list {
			if allowed[c.ID] {
				kept = append(kept, c)
			}
		}
		list = kept
	}

	active := bson.M{"status": models.StatusActive}
	nbCounts, err := orgutil.CountBy(ctx, h.DB, "neighborhoods", active, "city_id")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count neighborhoods failed", err, "טעינת הערים נכשלה", "/dashboard")
		return
	}
	workerCounts, err := orgutil.CountBy(ctx, h.DB, "workers", active, "city_id")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count workers failed", err, "טעינת הערים נכשלה", "/dashboard")
		return
	}

	areaNames := make(map[primitive.ObjectID]string, len(areas))
	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "ערים", "/dashboard"),
		CanManage: authz.CanManageOrg(r),
	}
	for _, a := range areas {
		areaNames[a.ID] = a.RegionName
		data.Areas = append(data.Areas, areaOption{ID: a.ID.Hex(), Name: a.RegionName, Selected: a.ID.Hex() == selected})
	}
	for _, c := range list {
		data.Items = append(data.Items, listItem{
			ID:            c.ID.Hex(),
			Name:          c.Name,
			Code:          c.Code,
			AreaName:      areaNames[c.AreaManagerID],
			Neighborhoods: nbCounts[c.ID],
			Workers:       workerCounts[c.ID],
		})
	}
	templates.Render(w, r, "city_list", data)
}
