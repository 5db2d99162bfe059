// internal/app/features/dashboard/coordinator.go
package dashboard

import (
	"context"
	"net/http"

	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// supervisorDashboardData is the activist coordinator view: today's
// attendance per assigned neighborhood.
type supervisorDashboardData struct {
	baseDashboardData
	Neighborhoods []breakdownRow
}

// ServeSupervisor shows the dashboard of activist coordinators.
func (h *Handler) ServeSupervisor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base, sc, err := h.load(ctx, r, "לוח בקרה")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := supervisorDashboardData{baseDashboardData: base}

	rows, err := h.neighborhoodRows(ctx, sc, base.Date)
	if err != nil {
		h.Log.Warn("dashboard neighborhood breakdown failed", zap.Error(err))
		data.Error = "טעינת הפירוט לפי שכונות נכשלה"
	}
	data.Neighborhoods = rows

	templates.Render(w, r, "supervisor_dashboard", data)
}

func (h *Handler) neighborhoodRows(ctx context.Context, sc orgutil.Scope, date string) ([]breakdownRow, error) {
	ids := sc.NeighborhoodFilter()
	if len(ids) == 0 {
		return nil, nil
	}
	nbs, err := neighborhoodstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(nbs))
	for _, n := range nbs {
		names[n.ID] = n.Name
	}
	return h.breakdown(ctx, "neighborhood_id", "site_id", names, date)
}
