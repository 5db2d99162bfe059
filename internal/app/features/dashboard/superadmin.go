// internal/app/features/dashboard/superadmin.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
)

// superadminDashboardData contains data for the superadmin dashboard.
type superadminDashboardData struct {
	baseDashboardData
	UsersCount       int64
	UnresolvedErrors int64
}

func (h *Handler) ServeSuperAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base, _, err := h.load(ctx, r, "לוח בקרה")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := superadminDashboardData{baseDashboardData: base}
	data.UsersCount, _ = h.DB.Collection("users").CountDocuments(ctx, bson.M{})
	data.UnresolvedErrors, _ = errorlogstore.New(h.DB).Count(ctx, true)

	templates.Render(w, r, "superadmin_dashboard", data)
}

// fail renders the error page for a dashboard that could not load.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, orgutil.ErrNoScope) {
		uierrors.RenderForbidden(w, r, "לחשבון זה לא הוגדר שיוך ארגוני", "/")
		return
	}
	if h.ErrLog != nil {
		h.ErrLog.LogServerError(w, r, "dashboard load failed", err, "טעינת לוח הבקרה נכשלה", "/")
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
