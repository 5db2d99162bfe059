// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"

	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// managerDashboardData is the area manager and city coordinator view:
// today's attendance per city in scope.
type managerDashboardData struct {
	baseDashboardData
	Cities        []breakdownRow
	CanManageOrg  bool
	CanAssignWork bool
}

// ServeManager shows the dashboard of area managers and city coordinators.
func (h *Handler) ServeManager(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base, sc, err := h.load(ctx, r, "לוח בקרה")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := managerDashboardData{
		baseDashboardData: base,
		CanManageOrg:      authz.CanManageOrg(r),
		CanAssignWork:     authz.CanManageWorkers(r),
	}

	rows, err := h.cityRows(ctx, sc, base.Date)
	if err != nil {
		h.Log.Warn("dashboard city breakdown failed", zap.Error(err))
		data.Error = "טעינת הפירוט לפי ערים נכשלה"
	}
	data.Cities = rows

	_, uname, _, _ := authz.UserCtx(r)
	h.Log.Debug("manager dashboard served", zap.String("user", uname))

	templates.Render(w, r, "manager_dashboard", data)
}

func (h *Handler) cityRows(ctx context.Context, sc orgutil.Scope, date string) ([]breakdownRow, error) {
	areas := sc.AreaFilter()
	if areas == nil {
		return nil, nil
	}
	cities, err := citystore.New(h.DB).ListByAreas(ctx, areas)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(cities))
	for _, c := range cities {
		if sc.HasCity(c.ID) {
			names[c.ID] = c.Name
		}
	}
	return h.breakdown(ctx, "city_id", "city_id", names, date)
}
