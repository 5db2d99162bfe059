// internal/app/features/areas/list.go
package areas

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
)

// listErrors maps the ?error= codes set by redirects to messages.
var listErrors = map[string]string{
	"has_cities": "לא ניתן למחוק אזור שיש בו ערים",
}

// ServeList handles GET /areas. Area managers see only their own areas.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "טעינת האזורים נכשלה", "/dashboard")
		return
	}

	list, err := h.Areas.List(ctx, sc.AreaFilter())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list areas failed", err, "טעינת האזורים נכשלה", "/dashboard")
		return
	}
	counts, err := orgutil.CountBy(ctx, h.DB, "cities", bson.M{"status": models.StatusActive}, "area_manager_id")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count cities failed", err, "טעינת האזורים נכשלה", "/dashboard")
		return
	}

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "אזורים", "/dashboard"),
		CanManage: authz.IsSuperAdmin(r),
		Error:     listErrors[query.Get(r, "error")],
	}
	for _, a := range list {
		data.Items = append(data.Items, listItem{
			ID:          a.ID.Hex(),
			Name:        a.RegionName,
			ManagerName: a.ManagerName,
			Cities:      counts[a.ID],
		})
	}
	templates.Render(w, r, "area_list", data)
}
