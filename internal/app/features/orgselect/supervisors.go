// internal/app/features/orgselect/supervisors.go
package orgselect

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/txn"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	msgEmailTaken   = "כתובת הדוא\"ל כבר רשומה במערכת"
	msgNoNeighborhd = "יש לבחור שכונה תחילה"
)

// quickInput is the posted quick-create form: the new supervisor and the
// neighborhood to assign them to.
type quickInput struct {
	NeighborhoodID string `json:"neighborhood_id" form:"neighborhood_id"`
	FullName       string `json:"full_name" form:"full_name"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Title          string `json:"title" form:"title"`
}

func (in quickInput) supervisor() cascade.QuickCreateInput {
	return cascade.QuickCreateInput{FullName: in.FullName, Email: in.Email, Phone: in.Phone, Title: in.Title}.Normalize()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/neighborhoods/{id}/supervisors                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ListSupervisors returns the active supervisors assigned to a visible
// neighborhood. An unassigned neighborhood yields an empty list.
func (h *Handler) ListSupervisors(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "listSupervisors", func(ctx context.Context) (any, error) {
		nbID, ok := normalize.ObjectID(chi.URLParam(r, "id"))
		if !ok {
			return nil, mongo.ErrNoDocuments
		}

		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()

		sc, err := h.scope(ctx, r)
		if err != nil {
			return nil, err
		}
		if !sc.HasNeighborhood(nbID) {
			return nil, actions.Fail(actions.CodeForbidden, msgForbidden)
		}
		list, err := h.Fetch(ctx, nbID.Hex())
		if err != nil {
			return nil, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
		}
		if list == nil {
			list = []cascade.Option{}
		}
		return list, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/supervisors/quick                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// QuickCreateSupervisor creates a supervisor for a neighborhood that has
// none and returns it with its one-time password.
func (h *Handler) QuickCreateSupervisor(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "quickCreateSupervisor", func(ctx context.Context) (any, error) {
		var in quickInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeQuickCreateFailure, msgBadRequest, err)
		}
		return h.createSupervisor(ctx, r, in)
	})
}

// createSupervisor validates in, then inserts the user, sets a temporary
// password and assigns the neighborhood in one transaction.
func (h *Handler) createSupervisor(ctx context.Context, r *http.Request, in quickInput) (cascade.QuickCreateResult, error) {
	var zero cascade.QuickCreateResult
	if !authz.CanManageWorkers(r) {
		return zero, actions.Fail(actions.CodeForbidden, msgForbidden)
	}
	sup := in.supervisor()
	if res := sup.Validate(); res.HasErrors() {
		return zero, actions.Invalid(actions.CodeQuickCreateFailure, res)
	}
	nbID, ok := normalize.ObjectID(in.NeighborhoodID)
	if !ok {
		return zero, &actions.Error{
			Code:    actions.CodeQuickCreateFailure,
			Message: msgNoNeighborhd,
			Fields:  map[string]string{"NeighborhoodID": msgNoNeighborhd},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	sc, err := h.scope(ctx, r)
	if err != nil {
		return zero, err
	}
	if !sc.HasNeighborhood(nbID) {
		return zero, actions.Fail(actions.CodeForbidden, msgForbidden)
	}
	nb, err := h.Neighborhoods.GetByID(ctx, nbID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, err
		}
		return zero, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}

	if _, err := h.Users.GetByEmail(ctx, sup.Email); err == nil {
		return zero, emailTaken()
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return zero, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}

	temp, err := authutil.TempPassword()
	if err != nil {
		return zero, err
	}
	hash, err := authutil.HashPassword(temp)
	if err != nil {
		return zero, err
	}

	actor := authz.UserEmail(r)
	cityID := nb.CityID
	var created models.User
	err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		u, err := h.Users.Create(ctx, models.User{
			FullName: sup.FullName,
			Email:    sup.Email,
			Phone:    sup.Phone,
			Title:    sup.Title,
			Role:     models.RoleActivistCoordinator,
			CityID:   &cityID,
		})
		if err != nil {
			return err
		}
		if err := h.Users.SetPassword(ctx, u.ID, hash, true); err != nil {
			return err
		}
		if _, err := h.Assign.Create(ctx, models.SupervisorAssignment{
			NeighborhoodID: nb.ID,
			UserID:         u.ID,
			CityID:         cityID,
			CreatedByEmail: actor,
		}); err != nil {
			return err
		}
		created = u
		return nil
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return zero, emailTaken()
	}
	if err != nil {
		return zero, actions.Wrap(actions.CodeQuickCreateFailure, "יצירת הרכז נכשלה", err)
	}

	h.AuditLog.Changed(ctx, r, actor, models.EntityUser, models.AuditCreate, created.ID, &cityID, nil, map[string]string{
		"full_name":       created.FullName,
		"email":           created.Email,
		"role":            created.Role,
		"neighborhood_id": nb.ID.Hex(),
	})
	return cascade.QuickCreateResult{Supervisor: orgutil.SupervisorOption(created), TempPassword: temp}, nil
}

func emailTaken() *actions.Error {
	return &actions.Error{
		Code:    actions.CodeQuickCreateFailure,
		Message: msgEmailTaken,
		Fields:  map[string]string{"Email": msgEmailTaken},
	}
}
