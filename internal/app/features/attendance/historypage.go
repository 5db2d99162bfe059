// internal/app/features/attendance/historypage.go
package attendance

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/export"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/reconcile"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type historyRow struct {
	ID          string
	Date        string
	WorkerName  string
	Phone       string
	SiteName    string
	Status      string
	StatusLabel string
	Time        string
	CheckedBy   string
	Notes       string
	IsDeleted   bool
	DeletedBy   string
	DeletedAt   string
	Reason      string
}

type pagerVM struct {
	HasPrev, HasNext bool
	PrevURL, NextURL string
	From, To, Total  int
}

type historyPageData struct {
	viewdata.BaseVM
	Query     historyQuery
	Sites     []siteOption
	Rows      []historyRow
	Summary   reconcile.Summary
	RatePct   int
	Pager     pagerVM
	ExportURL string
	CanEdit   bool
	Error     string
	Fields    map[string]string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /attendance/history                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeHistory renders the merged history: live rows and rows rebuilt from
// deletions, filtered and paged in memory.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	data := historyPageData{
		BaseVM:  viewdata.NewBaseVM(r, h.DB, "היסטוריית נוכחות", "/attendance"),
		CanEdit: h.Window.IsWithin(h.now()),
	}

	q, err := h.parseHistoryQuery(r)
	data.Query = q
	if err != nil {
		res := actions.Classify(err)
		data.Error, data.Fields = res.Error, res.Fields
		templates.Render(w, r, "attendance_history", data)
		return
	}

	d, sc, err := h.fetchHistory(r.Context(), r, q)
	if err != nil {
		res := actions.Classify(err)
		if res.Code == actions.CodeForbidden {
			h.renderScopeError(w, r, err, "/attendance")
			return
		}
		// Retryable: the page shows a banner and the filters stay usable.
		h.report(r, "attendance history: fetch failed", err)
		data.Error = msgFetchFailure
		templates.Render(w, r, "attendance_history", data)
		return
	}
	if hier, err := orgutil.LoadHierarchy(r.Context(), h.DB, sc); err == nil {
		for _, n := range hier.Neighborhoods {
			data.Sites = append(data.Sites, siteOption{ID: n.ID.Hex(), Name: n.Name, Selected: n.ID.Hex() == q.Site})
		}
	} else {
		h.report(r, "attendance history: load sites failed", err)
	}

	entries := merged(d, q, h.Window.Loc)
	data.Summary = reconcile.Summarize(entries)
	data.RatePct = int(data.Summary.PresenceRate*100 + 0.5)

	pg := reconcile.Page(entries, pageParam(q), reconcile.DefaultPageSize)
	data.Rows = h.historyRows(pg.Entries)
	data.Pager = pagerVM{
		HasPrev: pg.HasPrev,
		HasNext: pg.HasNext,
		From:    pg.From,
		To:      pg.To,
		Total:   pg.Total,
	}
	if pg.HasPrev {
		data.Pager.PrevURL = pageURL(r, pg.Page-1)
	}
	if pg.HasNext {
		data.Pager.NextURL = pageURL(r, pg.Page+1)
	}
	data.ExportURL = "/attendance/export.xlsx"
	if raw := r.URL.RawQuery; raw != "" {
		data.ExportURL += "?" + raw
	}

	templates.Render(w, r, "attendance_history", data)
}

func (h *Handler) historyRows(entries []reconcile.Entry) []historyRow {
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		row := historyRow{
			ID:          e.ID().Hex(),
			Date:        e.Date(),
			WorkerName:  e.WorkerName(),
			SiteName:    e.SiteName(),
			Status:      e.Status(),
			StatusLabel: export.StatusLabel(e.Status()),
			Notes:       e.Notes(),
			IsDeleted:   e.IsDeleted,
		}
		if e.IsDeleted {
			d := e.Deleted
			row.Phone = d.WorkerPhone
			row.CheckedBy = d.CheckedInBy
			row.DeletedBy = d.DeletedBy
			row.DeletedAt = h.Window.Local(d.DeletedAt).Format("02/01/2006 15:04")
			row.Reason = d.Reason
		} else {
			rec := e.Record
			row.Phone = rec.WorkerPhone
			row.CheckedBy = rec.CheckedInBy
			if rec.CheckedInAt != nil {
				row.Time = h.Window.Local(*rec.CheckedInAt).Format("15:04")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /attendance/export.xlsx                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeExport downloads the filtered history (all pages) as a workbook.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseHistoryQuery(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "export: bad query", err, actions.Classify(err).Error, "/attendance/history")
		return
	}
	d, _, err := h.fetchHistory(r.Context(), r, q)
	if err != nil {
		if actions.Classify(err).Code == actions.CodeForbidden {
			h.renderScopeError(w, r, err, "/attendance/history")
			return
		}
		h.ErrLog.LogServerError(w, r, "export: fetch history", err, msgFetchFailure, "/attendance/history")
		return
	}

	headers, rows := export.Rows(merged(d, q, h.Window.Loc), h.Window.Loc)
	name := export.Filename(q.From, q.To)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	if err := export.WriteXLSX(w, headers, rows); err != nil {
		// Headers are already out; only the log can see this.
		h.Log.Error("export: write workbook failed", zap.Error(err))
	}
}
