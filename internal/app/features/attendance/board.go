// internal/app/features/attendance/board.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/export"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type boardRow struct {
	WorkerID    string
	WorkerName  string
	Phone       string
	RecordID    string
	Status      string
	StatusLabel string
	Time        string
	Notes       string
	Reported    bool
}

type boardGroup struct {
	SiteID   string
	SiteName string
	Rows     []boardRow
}

type boardCounts struct {
	Workers int
	Present int
	Absent  int
	Pending int
}

type siteOption struct {
	ID       string
	Name     string
	Selected bool
}

type boardData struct {
	viewdata.BaseVM
	Window         timewindow.State
	PollIntervalMs int64
	Date           string
	Sites          []siteOption
	Groups         []boardGroup
	Counts         boardCounts
	Error          string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /attendance                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeBoard shows today's check-in board for every worker in scope,
// grouped by neighborhood.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	data := boardData{
		BaseVM:         viewdata.NewBaseVM(r, h.DB, "נוכחות היום", "/dashboard"),
		Window:         h.Window.Status(now),
		PollIntervalMs: h.PollInterval.Milliseconds(),
		Date:           h.Window.Today(now),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc, err := h.scope(ctx, r)
	if err != nil {
		h.renderScopeError(w, r, err, "/dashboard")
		return
	}

	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		data.Error = msgFetchFailure
		h.report(r, "attendance board: load hierarchy failed", err)
		templates.Render(w, r, "attendance_board", data)
		return
	}

	siteFilter := strings.ToLower(normalize.FilterID(query.Get(r, "site")))
	siteNames := make(map[primitive.ObjectID]string, len(hier.Neighborhoods))
	var siteIDs []primitive.ObjectID
	for _, n := range hier.Neighborhoods {
		siteNames[n.ID] = n.Name
		data.Sites = append(data.Sites, siteOption{ID: n.ID.Hex(), Name: n.Name, Selected: n.ID.Hex() == siteFilter})
		if siteFilter == "" || n.ID.Hex() == siteFilter {
			siteIDs = append(siteIDs, n.ID)
		}
	}
	if siteIDs == nil {
		siteIDs = []primitive.ObjectID{}
	}

	workers, err := h.Workers.List(ctx, workerstore.Query{NeighborhoodIDs: siteIDs})
	if err == nil {
		ids := make([]primitive.ObjectID, len(workers))
		for i, wk := range workers {
			ids[i] = wk.ID
		}
		var today map[primitive.ObjectID]models.AttendanceRecord
		today, err = h.Records.ByWorkerForDate(ctx, data.Date, ids)
		if err == nil {
			data.Groups, data.Counts = buildBoard(workers, today, siteNames, h.Window)
		}
	}
	if err != nil {
		data.Error = msgFetchFailure
		h.report(r, "attendance board: fetch failed", err)
	}

	templates.Render(w, r, "attendance_board", data)
}

// buildBoard groups workers by site, in site-name order, and attaches each
// worker's record for the day.
func buildBoard(workers []models.Worker, today map[primitive.ObjectID]models.AttendanceRecord, siteNames map[primitive.ObjectID]string, win timewindow.Window) ([]boardGroup, boardCounts) {
	var counts boardCounts
	bySite := map[primitive.ObjectID]*boardGroup{}
	var order []primitive.ObjectID

	for _, wk := range workers {
		g, ok := bySite[wk.NeighborhoodID]
		if !ok {
			g = &boardGroup{SiteID: wk.NeighborhoodID.Hex(), SiteName: siteNames[wk.NeighborhoodID]}
			bySite[wk.NeighborhoodID] = g
			order = append(order, wk.NeighborhoodID)
		}
		row := boardRow{WorkerID: wk.ID.Hex(), WorkerName: wk.FullName, Phone: wk.Phone}
		counts.Workers++
		if rec, ok := today[wk.ID]; ok {
			row.Reported = true
			row.RecordID = rec.ID.Hex()
			row.Status = rec.Status
			row.StatusLabel = export.StatusLabel(rec.Status)
			row.Notes = rec.Notes
			if rec.CheckedInAt != nil {
				row.Time = win.Local(*rec.CheckedInAt).Format("15:04")
			}
			if rec.Status == models.AttendancePresent {
				counts.Present++
			} else {
				counts.Absent++
			}
		} else {
			counts.Pending++
		}
		g.Rows = append(g.Rows, row)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return bySite[order[i]].SiteName < bySite[order[j]].SiteName
	})
	groups := make([]boardGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *bySite[id])
	}
	return groups, counts
}

// renderScopeError renders a scope failure as an HTML page.
func (h *Handler) renderScopeError(w http.ResponseWriter, r *http.Request, err error, back string) {
	var ae *actions.Error
	if errors.As(err, &ae) && ae.Code == actions.CodeForbidden {
		uierrors.RenderForbidden(w, r, ae.Message, back)
		return
	}
	h.ErrLog.LogServerError(w, r, "resolve scope", err, msgFetchFailure, back)
}
