// internal/app/features/attendance/history.go
package attendance

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	attendancestore "github.com/dalemusser/fieldops/internal/app/store/attendance"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/reconcile"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultHistoryDays is the range shown when no dates are given.
const DefaultHistoryDays = 7

// MaxHistoryDays bounds one history request.
const MaxHistoryDays = 366

// historyQuery is the filter shared by the history page, the history API
// and the export.
type historyQuery struct {
	From   string `form:"from" validate:"omitempty,ymd" label:"מתאריך"`
	To     string `form:"to" validate:"omitempty,ymd" label:"עד תאריך"`
	Site   string `form:"site" validate:"omitempty,objectid" label:"שכונה"`
	Worker string `form:"worker" validate:"omitempty,objectid" label:"פעיל"`
	Status string `form:"status" validate:"omitempty,oneof=PRESENT ABSENT" label:"סטטוס"`
	Show   string `form:"show" validate:"omitempty,oneof=live deleted" label:"תצוגה"`
	Q      string `form:"q" validate:"max=100" label:"חיפוש"`
	Page   int    `form:"page"`
}

// criteria returns the in-memory filter. Site and worker are applied by
// the fetch already and are repeated here so Filter alone reproduces the
// view.
func (q historyQuery) criteria() reconcile.Criteria {
	return reconcile.Criteria{
		SiteID:   q.Site,
		WorkerID: q.Worker,
		Status:   q.Status,
		Show:     reconcile.Visibility(q.Show),
		Search:   q.Q,
	}
}

// parseHistoryQuery reads and validates the query, filling the default
// date range ending today.
func (h *Handler) parseHistoryQuery(r *http.Request) (historyQuery, error) {
	var q historyQuery
	if err := formutil.BindQuery(r, &q); err != nil {
		return q, actions.Wrap(actions.CodeValidationFailure, msgBadRequest, err)
	}
	q.From = normalize.QueryParam(q.From)
	q.To = normalize.QueryParam(q.To)
	// Ids compare as strings against ObjectID.Hex(), which is lower case.
	q.Site = strings.ToLower(normalize.FilterID(q.Site))
	q.Worker = strings.ToLower(normalize.FilterID(q.Worker))
	q.Status = strings.ToUpper(normalize.FilterID(q.Status))
	q.Show = strings.ToLower(normalize.FilterID(q.Show))
	q.Q = normalize.QueryParam(q.Q)
	if res := inputval.Validate(q); res.HasErrors() {
		return q, actions.Invalid(actions.CodeValidationFailure, res)
	}

	if q.To == "" {
		q.To = h.Window.Today(h.now())
	}
	to, _ := time.Parse(models.DateLayout, q.To)
	if q.From == "" {
		q.From = to.AddDate(0, 0, -(DefaultHistoryDays - 1)).Format(models.DateLayout)
	}
	from, _ := time.Parse(models.DateLayout, q.From)
	if from.After(to) {
		return q, actions.Fail(actions.CodeValidationFailure, "תאריך ההתחלה מאוחר מתאריך הסיום")
	}
	if to.Sub(from) > MaxHistoryDays*24*time.Hour {
		return q, actions.Fail(actions.CodeValidationFailure, "טווח התאריכים ארוך מדי (עד שנה)")
	}
	return q, nil
}

// historyData is the raw material of a history view: live records and the
// DELETE audit entries of the same range.
type historyData struct {
	Records   []models.AttendanceRecord `json:"records"`
	AuditLogs []models.AuditEntry       `json:"auditLogs"`
}

// fetchHistory loads one batch of records and deletes for q, restricted to
// the caller's scope.
func (h *Handler) fetchHistory(ctx context.Context, r *http.Request, q historyQuery) (historyData, orgutil.Scope, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	sc, err := h.scope(ctx, r)
	if err != nil {
		return historyData{}, sc, err
	}

	siteIDs := sc.NeighborhoodFilter()
	if q.Site != "" {
		id, _ := primitive.ObjectIDFromHex(q.Site)
		if !sc.HasNeighborhood(id) {
			return historyData{}, sc, actions.Fail(actions.CodeForbidden, msgForbidden)
		}
		siteIDs = []primitive.ObjectID{id}
	}
	var workerID *primitive.ObjectID
	if q.Worker != "" {
		id, _ := primitive.ObjectIDFromHex(q.Worker)
		workerID = &id
	}

	records, err := h.Records.ListRange(ctx, attendancestore.RangeQuery{
		From:     q.From,
		To:       q.To,
		SiteIDs:  siteIDs,
		WorkerID: workerID,
		Limit:    h.BatchSize,
	})
	if err != nil {
		return historyData{}, sc, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}

	deletes, err := h.Audit.DeletedAttendanceInRange(ctx, audit.DeletedQuery{
		From:    q.From,
		To:      q.To,
		SiteIDs: siteIDs,
		Limit:   h.BatchSize,
	})
	if err != nil {
		return historyData{}, sc, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}
	if q.Worker != "" {
		kept := deletes[:0]
		for _, e := range deletes {
			if e.Before["worker_id"] == q.Worker {
				kept = append(kept, e)
			}
		}
		deletes = kept
	}

	if records == nil {
		records = []models.AttendanceRecord{}
	}
	if deletes == nil {
		deletes = []models.AuditEntry{}
	}
	return historyData{Records: records, AuditLogs: deletes}, sc, nil
}

// merged runs the reconciliation over fetched data and applies q.
func merged(d historyData, q historyQuery, loc *time.Location) []reconcile.Entry {
	return reconcile.Filter(reconcile.Merge(d.Records, d.AuditLogs, loc), q.criteria())
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/attendance/history                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// FetchHistory returns {records, auditLogs} for the range. The page merges
// them itself; nothing merged is cached between requests.
func (h *Handler) FetchHistory(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "fetchAttendanceHistory", func(ctx context.Context) (any, error) {
		q, err := h.parseHistoryQuery(r)
		if err != nil {
			return nil, err
		}
		d, _, err := h.fetchHistory(ctx, r, q)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// pageParam reads ?page= as a 1-based page number.
func pageParam(q historyQuery) int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

// pageURL rebuilds the current history URL for another page.
func pageURL(r *http.Request, page int) string {
	v := r.URL.Query()
	v.Set("page", strconv.Itoa(page))
	return r.URL.Path + "?" + v.Encode()
}
