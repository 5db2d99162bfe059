// internal/app/features/workers/list.go
package workers

import (
	"context"
	"net/http"

	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/paging"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type filterOption struct {
	ID       string
	Name     string
	Selected bool
}

type workerRow struct {
	ID           string
	FullName     string
	Phone        string
	Position     string
	Neighborhood string
	Supervisor   string
	Disabled     bool
}

type listData struct {
	viewdata.BaseVM
	Cities        []filterOption
	Neighborhoods []filterOption
	Search        string
	ShowDisabled  bool
	Rows          []workerRow
	Pager         paging.Pager
	CanManage     bool
}

// listQuery turns the request filters into a store query limited to the
// caller's scope. Supervisors only see the workers reporting to them.
func listQuery(r *http.Request, sc orgutil.Scope) workerstore.Query {
	q := workerstore.Query{
		CityIDs:         sc.CityFilter(),
		NeighborhoodIDs: sc.NeighborhoodFilter(),
		Search:          normalize.QueryParam(query.Get(r, "q")),
		IncludeDisabled: query.Get(r, "disabled") == "1",
	}
	if id, ok := normalize.ObjectID(query.Get(r, "city")); ok {
		q.CityIDs = []primitive.ObjectID{}
		if sc.HasCity(id) {
			q.CityIDs = append(q.CityIDs, id)
		}
	}
	if id, ok := normalize.ObjectID(query.Get(r, "neighborhood")); ok {
		q.NeighborhoodIDs = []primitive.ObjectID{}
		if sc.HasNeighborhood(id) {
			q.NeighborhoodIDs = append(q.NeighborhoodIDs, id)
		}
	}
	role, _, uid, _ := authz.UserCtx(r)
	if role == models.RoleActivistCoordinator {
		q.SupervisorID = &uid
	}
	return q
}

// ServeList handles GET /workers[?city=&neighborhood=&q=&disabled=1&start=].
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

	start := paging.ParseStart(r)
	q := listQuery(r, sc)
	total, err := h.Workers.Count(ctx, q)
	if err != nil {
		h.fail(w, r, "count workers failed", err)
		return
	}
	q.Skip, q.Limit = paging.Skip(start), paging.LimitPlusOne()
	list, err := h.Workers.List(ctx, q)
	if err != nil {
		h.fail(w, r, "list workers failed", err)
		return
	}
	pg := paging.TrimPage(&list, start)

	nbNames := make(map[primitive.ObjectID]string, len(hier.Neighborhoods))
	supNames := make(map[primitive.ObjectID]string, len(hier.Supervisors))
	for _, s := range hier.Supervisors {
		supNames[s.ID] = s.FullName
	}

	city := query.Get(r, "city")
	nb := query.Get(r, "neighborhood")
	data := listData{
		BaseVM:       viewdata.NewBaseVM(r, h.DB, "פעילים", "/dashboard"),
		Search:       q.Search,
		ShowDisabled: q.IncludeDisabled,
		CanManage:    authz.CanManageWorkers(r),
	}
	for _, c := range hier.Cities {
		data.Cities = append(data.Cities, filterOption{ID: c.ID.Hex(), Name: c.Name, Selected: c.ID.Hex() == city})
	}
	for _, n := range hier.Neighborhoods {
		nbNames[n.ID] = n.Name
		data.Neighborhoods = append(data.Neighborhoods, filterOption{ID: n.ID.Hex(), Name: n.Name, Selected: n.ID.Hex() == nb})
	}
	for _, wk := range list {
		data.Rows = append(data.Rows, workerRow{
			ID:           wk.ID.Hex(),
			FullName:     wk.FullName,
			Phone:        wk.Phone,
			Position:     wk.Position,
			Neighborhood: nbNames[wk.NeighborhoodID],
			Supervisor:   supNames[wk.SupervisorID],
			Disabled:     wk.Status != models.StatusActive,
		})
	}
	data.Pager = paging.NewPager(r, start, len(list), total, pg)
	templates.Render(w, r, "worker_list", data)
}
