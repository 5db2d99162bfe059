// internal/app/features/neighborhoods/view.go
package neighborhoods

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type person struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// supervisorsData backs the "neighborhood_supervisors" block, which the
// assign and remove actions re-render on their own.
type supervisorsData struct {
	ID        string
	Assigned  []person
	Available []person
	CanManage bool
	Error     string
}

type viewData struct {
	viewdata.BaseVM
	ID          string
	Name        string
	Address     string
	CityName    string
	Workers     int64
	Supervisors supervisorsData
}

func (h *Handler) supervisors(ctx context.Context, r *http.Request, n models.Neighborhood) (supervisorsData, error) {
	out := supervisorsData{
		ID:        n.ID.Hex(),
		CanManage: authz.CanManageWorkers(r),
	}
	ids, err := h.Assign.UserIDsByNeighborhood(ctx, n.ID)
	if err != nil {
		return out, err
	}
	assigned, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		return out, err
	}
	taken := make(map[primitive.ObjectID]bool, len(assigned))
	for _, u := range assigned {
		taken[u.ID] = true
		out.Assigned = append(out.Assigned, person{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Phone: u.Phone})
	}
	if !out.CanManage {
		return out, nil
	}
	cityID := n.CityID
	all, err := h.Users.ListByRole(ctx, models.RoleActivistCoordinator, &cityID)
	if err != nil {
		return out, err
	}
	for _, u := range all {
		if !taken[u.ID] {
			out.Available = append(out.Available, person{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email})
		}
	}
	return out, nil
}

// ServeView renders GET /neighborhoods/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	city, err := h.Cities.GetByID(ctx, n.CityID)
	if err != nil {
		h.fail(w, r, "load city failed", err)
		return
	}
	sups, err := h.supervisors(ctx, r, n)
	if err != nil {
		h.fail(w, r, "load supervisors failed", err)
		return
	}
	workers, err := h.DB.Collection("workers").CountDocuments(ctx, bson.M{"neighborhood_id": n.ID, "status": models.StatusActive})
	if err != nil {
		h.fail(w, r, "count workers failed", err)
		return
	}
	templates.Render(w, r, "neighborhood_view", viewData{
		BaseVM:      viewdata.NewBaseVM(r, h.DB, n.Name, "/neighborhoods"),
		ID:          n.ID.Hex(),
		Name:        n.Name,
		Address:     n.Address,
		CityName:    city.Name,
		Workers:     workers,
		Supervisors: sups,
	})
}

// HandleAssign adds a supervisor of the same city (POST /{id}/supervisors).
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, ok := h.load(w, r, ctx)
	if !ok {
		return
	}

	var msg string
	uid, valid := normalize.ObjectID(r.FormValue("user_id"))
	u, err := h.Users.GetByID(ctx, uid)
	switch {
	case !valid || err != nil:
		msg = "יש לבחור רכז"
	case u.Role != models.RoleActivistCoordinator || u.CityID == nil || *u.CityID != n.CityID:
		msg = "הרכז אינו שייך לעיר של השכונה"
	default:
		_, err = h.Assign.Create(ctx, models.SupervisorAssignment{
			NeighborhoodID: n.ID,
			UserID:         u.ID,
			CityID:         n.CityID,
			CreatedByEmail: authz.UserEmail(r),
		})
		switch {
		case errors.Is(err, supervisorassign.ErrAlreadyAssigned):
			msg = "הרכז כבר משויך לשכונה"
		case err != nil:
			h.ErrLog.LogServerError(w, r, "assign supervisor failed", err, "שיוך הרכז נכשל", "/neighborhoods")
			return
		default:
			cityID := n.CityID
			h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityNeighborhood, models.AuditUpdate, n.ID, &cityID,
				nil, map[string]string{"supervisor_added": u.ID.Hex()})
		}
	}
	h.renderSupervisors(w, r, ctx, n, msg)
}

// HandleUnassign removes a supervisor (POST /{id}/supervisors/remove).
// A supervisor who still has workers in the neighborhood stays assigned.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	uid, valid := normalize.ObjectID(r.FormValue("user_id"))
	if !valid {
		uierrors.RenderNotFound(w, r, "/neighborhoods/"+n.ID.Hex())
		return
	}

	var msg string
	busy, err := h.DB.Collection("workers").CountDocuments(ctx, bson.M{
		"neighborhood_id": n.ID, "supervisor_id": uid, "status": models.StatusActive,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count workers failed", err, "הסרת הרכז נכשלה", "/neighborhoods")
		return
	}
	if busy > 0 {
		msg = "לרכז יש פעילים בשכונה. יש להעביר אותם לרכז אחר תחילה"
	} else {
		if err := h.Assign.Remove(ctx, n.ID, uid); err != nil {
			h.ErrLog.LogServerError(w, r, "remove supervisor failed", err, "הסרת הרכז נכשלה", "/neighborhoods")
			return
		}
		cityID := n.CityID
		h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityNeighborhood, models.AuditUpdate, n.ID, &cityID,
			map[string]string{"supervisor_removed": uid.Hex()}, nil)
	}
	h.renderSupervisors(w, r, ctx, n, msg)
}

func (h *Handler) renderSupervisors(w http.ResponseWriter, r *http.Request, ctx context.Context, n models.Neighborhood, msg string) {
	data, err := h.supervisors(ctx, r, n)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load supervisors failed", err, "טעינת הרכזים נכשלה", "/neighborhoods")
		return
	}
	data.Error = msg
	templates.RenderSnippet(w, "neighborhood_supervisors", data)
}
