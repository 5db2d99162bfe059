// internal/app/features/orgtree/handler.go
package orgtree

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, ErrLog: errLog}
}

type supervisorVM struct {
	ID    string
	Name  string
	Phone string
}

type neighborhoodVM struct {
	ID          string
	Name        string
	Supervisors []supervisorVM
	Workers     int64
}

type cityVM struct {
	ID            string
	Name          string
	Neighborhoods []neighborhoodVM
	Workers       int64
}

type areaVM struct {
	ID          string
	Name        string
	ManagerName string
	Cities      []cityVM
	Workers     int64
}

type pageData struct {
	viewdata.BaseVM
	Areas   []areaVM
	Workers int64
}

// Tree loads the visible organization as view models.
func (h *Handler) Tree(ctx context.Context, r *http.Request) ([]areaVM, error) {
	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if err != nil {
		return nil, err
	}
	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		return nil, err
	}
	nodes, err := orgutil.BuildTree(ctx, h.DB, hier)
	if err != nil {
		return nil, err
	}

	out := make([]areaVM, 0, len(nodes))
	for _, a := range nodes {
		// Supervisors see only their branch; skip areas left empty by scope.
		if !sc.All && len(a.Cities) == 0 {
			continue
		}
		av := areaVM{ID: a.Area.ID.Hex(), Name: a.Area.RegionName, ManagerName: a.Area.ManagerName, Workers: a.Workers}
		for _, c := range a.Cities {
			cv := cityVM{ID: c.City.ID.Hex(), Name: c.City.Name, Workers: c.Workers}
			for _, n := range c.Neighborhoods {
				nv := neighborhoodVM{ID: n.Neighborhood.ID.Hex(), Name: n.Neighborhood.Name, Workers: n.Workers}
				for _, s := range n.Supervisors {
					nv.Supervisors = append(nv.Supervisors, supervisorVM{ID: s.ID.Hex(), Name: s.FullName, Phone: s.Phone})
				}
				cv.Neighborhoods = append(cv.Neighborhoods, nv)
			}
			av.Cities = append(av.Cities, cv)
		}
		out = append(out, av)
	}
	return out, nil
}

// ServeTree renders GET /org.
func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	areas, err := h.Tree(ctx, r)
	if errors.Is(err, orgutil.ErrNoScope) {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לצפות במבנה הארגוני", "/dashboard")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build org tree failed", err, "טעינת המבנה הארגוני נכשלה", "/dashboard")
		return
	}
	data := pageData{BaseVM: viewdata.NewBaseVM(r, h.DB, "מבנה ארגוני", "/dashboard"), Areas: areas}
	for _, a := range areas {
		data.Workers += a.Workers
	}
	templates.Render(w, r, "org_tree", data)
}

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeTree)
	return r
}
