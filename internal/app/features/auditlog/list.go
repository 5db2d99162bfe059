// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/paging"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// buildFilter turns the bound filter into a store query. Dates are whole
// days in loc; To includes the whole day.
func buildFilter(in filterInput, sc orgutil.Scope, loc *time.Location) audit.QueryFilter {
	f := audit.QueryFilter{
		CityIDs:   sc.CityFilter(),
		Entity:    in.Entity,
		Action:    in.Action,
		UserEmail: normalize.Email(in.Email),
	}
	if t, err := time.ParseInLocation("2006-01-02", in.From, loc); err == nil {
		t = t.UTC()
		f.StartTime = &t
	}
	if t, err := time.ParseInLocation("2006-01-02", in.To, loc); err == nil {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC()
		f.EndTime = &t
	}
	return f
}

func (h *Handler) item(e models.AuditEntry) listItem {
	return listItem{
		When:      e.CreatedAt.In(h.Loc).Format("02/01/2006 15:04"),
		Entity:    label(entityOptions, e.Entity),
		Action:    label(actionOptions, e.Action),
		EntityID:  e.EntityID.Hex(),
		UserEmail: e.UserEmail,
		IP:        e.IP,
		Changes:   diff(e.Before, e.After),
		IsDelete:  e.Action == models.AuditDelete,
	}
}

// ServeList handles GET /audit[?entity=&action=&email=&from=&to=&start=].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var in filterInput
	if err := formutil.BindQuery(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bind audit filter failed", err, "פרמטרי החיפוש אינם תקינים", "/audit")
		return
	}
	in.Email = normalize.Email(in.Email)

	data := listData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, "יומן פעולות", "/dashboard"),
		Filter:   in,
		Entities: entityOptions,
		Actions:  actionOptions,
	}
	if res := inputval.Validate(in); res.HasErrors() {
		data.Error = res.First()
		data.Fields = res.ByField()
		templates.Render(w, r, "audit_list", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if errors.Is(err, orgutil.ErrNoScope) {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לצפות ביומן", "/dashboard")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "טעינת היומן נכשלה", "/dashboard")
		return
	}

	f := buildFilter(in, sc, h.Loc)
	total, err := h.Store.CountByFilter(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit entries failed", err, "טעינת היומן נכשלה", "/dashboard")
		return
	}
	start := paging.ParseStart(r)
	f.Offset, f.Limit = paging.Skip(start), paging.LimitPlusOne()
	entries, err := h.Store.Query(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit entries failed", err, "טעינת היומן נכשלה", "/dashboard")
		return
	}
	pg := paging.TrimPage(&entries, start)

	data.Items = make([]listItem, 0, len(entries))
	for _, e := range entries {
		data.Items = append(data.Items, h.item(e))
	}
	data.Pager = paging.NewPager(r, start, len(entries), total, pg)

	h.Log.Debug("audit log viewed", zap.Int64("total", total), zap.Int("start", start))
	templates.Render(w, r, "audit_list", data)
}
