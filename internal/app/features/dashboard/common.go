// internal/app/features/dashboard/common.go
package dashboard

import (
	"context"
	"net/http"
	"sort"

	metricsstore "github.com/dalemusser/fieldops/internal/app/store/metrics"
	taskstore "github.com/dalemusser/fieldops/internal/app/store/tasks"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxTasks caps the open tasks listed on a dashboard.
const maxTasks = 5

// baseDashboardData contains fields common to all dashboard views.
type baseDashboardData struct {
	viewdata.BaseVM
	Window    timewindow.State
	Date      string
	Counts    metricsstore.Counts
	Pending   int64
	RatePct   int64
	Tasks     []taskRow
	MoreTasks int
	Error     string
}

type taskRow struct {
	ID      string
	Title   string
	DueDate string
	Overdue bool
}

// breakdownRow is one city or neighborhood of today's attendance.
type breakdownRow struct {
	ID      string
	Name    string
	Workers int64
	Present int64
	Absent  int64
	Pending int64
}

// load fills the parts every role shares: the window, today's totals for
// the user's scope and their open tasks.
func (h *Handler) load(ctx context.Context, r *http.Request, title string) (baseDashboardData, orgutil.Scope, error) {
	now := h.now()
	d := baseDashboardData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, title, "/"),
		Window: h.Window.Status(now),
		Date:   h.Window.Today(now),
	}

	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if err != nil {
		return d, orgutil.Scope{}, err
	}

	d.Counts = metricsstore.FetchDashboardCounts(ctx, h.DB, metricsstore.Filter{
		AreaIDs:         sc.AreaFilter(),
		CityIDs:         sc.CityFilter(),
		NeighborhoodIDs: sc.NeighborhoodFilter(),
	}, d.Date)
	d.Pending = d.Counts.Pending()
	d.RatePct = d.Counts.RatePct()

	_, _, uid, _ := authz.UserCtx(r)
	tasks, err := taskstore.New(h.DB).ListAssignedTo(ctx, uid, false)
	if err != nil {
		return d, sc, err
	}
	d.Tasks, d.MoreTasks = taskRows(tasks, d.Date)
	return d, sc, nil
}

func taskRows(tasks []models.Task, today string) ([]taskRow, int) {
	rows := make([]taskRow, 0, min(len(tasks), maxTasks))
	for i, t := range tasks {
		if i == maxTasks {
			break
		}
		rows = append(rows, taskRow{
			ID:      t.ID.Hex(),
			Title:   t.Title,
			DueDate: t.DueDate,
			Overdue: t.DueDate != "" && t.DueDate < today,
		})
	}
	return rows, len(tasks) - len(rows)
}

// breakdown counts today's workers and attendance grouped by groupKey
// ("city_id" or "neighborhood_id"; attendance uses "city_id" or "site_id").
// Rows follow names and are sorted by name.
func (h *Handler) breakdown(ctx context.Context, groupKey, recordKey string, names map[primitive.ObjectID]string, date string) ([]breakdownRow, error) {
	ids := make([]primitive.ObjectID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}

	workers, err := orgutil.CountBy(ctx, h.DB, "workers",
		bson.M{"status": models.StatusActive, groupKey: bson.M{"$in": ids}}, groupKey)
	if err != nil {
		return nil, err
	}
	present, err := orgutil.CountBy(ctx, h.DB, "attendance",
		bson.M{"date": date, "status": models.AttendancePresent, recordKey: bson.M{"$in": ids}}, recordKey)
	if err != nil {
		return nil, err
	}
	absent, err := orgutil.CountBy(ctx, h.DB, "attendance",
		bson.M{"date": date, "status": models.AttendanceAbsent, recordKey: bson.M{"$in": ids}}, recordKey)
	if err != nil {
		return nil, err
	}

	rows := make([]breakdownRow, 0, len(ids))
	for _, id := range ids {
		c := metricsstore.Counts{Workers: workers[id], Present: present[id], Absent: absent[id]}
		rows = append(rows, breakdownRow{
			ID:      id.Hex(),
			Name:    names[id],
			Workers: c.Workers,
			Present: c.Present,
			Absent:  c.Absent,
			Pending: c.Pending(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
