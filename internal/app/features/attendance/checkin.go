// internal/app/features/attendance/checkin.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"strings"

	attendancestore "github.com/dalemusser/fieldops/internal/app/store/attendance"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/txn"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkInInput struct {
	WorkerID string `json:"worker_id" form:"worker_id" validate:"required,objectid" label:"פעיל"`
	Status   string `json:"status" form:"status" validate:"required,oneof=PRESENT ABSENT" label:"סטטוס"`
	Notes    string `json:"notes" form:"notes" validate:"max=500" label:"הערות"`
}

type editInput struct {
	Status string `json:"status" form:"status" validate:"required,oneof=PRESENT ABSENT" label:"סטטוס"`
	Notes  string `json:"notes" form:"notes" validate:"max=500" label:"הערות"`
	Reason string `json:"reason" form:"reason" validate:"required,max=500" label:"סיבת השינוי"`
}

type deleteInput struct {
	Reason string `json:"reason" form:"reason" validate:"required,max=500" label:"סיבת הביטול"`
}

func normStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return models.AttendancePresent
	}
	return s
}

type recordResult struct {
	Record models.AttendanceRecord `json:"record"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/attendance                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// RecordCheckIn records today's attendance for one worker. The window is
// checked before anything is read or written.
func (h *Handler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "recordCheckIn", func(ctx context.Context) (any, error) {
		now := h.now()
		if err := h.Window.Check(now); err != nil {
			return nil, err
		}

		var in checkInInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeValidationFailure, msgBadRequest, err)
		}
		in.WorkerID = strings.TrimSpace(in.WorkerID)
		in.Status = normStatus(in.Status)
		in.Notes = strings.TrimSpace(in.Notes)
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, actions.Invalid(actions.CodeValidationFailure, res)
		}

		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()

		sc, err := h.scope(ctx, r)
		if err != nil {
			return nil, err
		}
		workerID, _ := primitive.ObjectIDFromHex(in.WorkerID)
		worker, err := h.Workers.GetByID(ctx, workerID)
		if err != nil {
			return nil, err
		}
		if !sc.HasNeighborhood(worker.NeighborhoodID) {
			return nil, actions.Fail(actions.CodeForbidden, msgForbidden)
		}
		if normalize.Status(worker.Status) != models.StatusActive {
			return nil, actions.Fail(actions.CodeValidationFailure, "הפעיל אינו פעיל")
		}
		site, err := h.Neighborhoods.GetByID(ctx, worker.NeighborhoodID)
		if err != nil {
			return nil, err
		}

		email := authz.UserEmail(r)
		at := now.UTC()
		rec := models.AttendanceRecord{
			Date:        h.Window.Today(now),
			WorkerID:    worker.ID,
			SiteID:      site.ID,
			CityID:      site.CityID,
			Status:      in.Status,
			CheckedInAt: &at,
			CheckedInBy: email,
			Notes:       in.Notes,
			WorkerName:  worker.FullName,
			WorkerPhone: worker.Phone,
			SiteName:    site.Name,
		}

		var created models.AttendanceRecord
		err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
			var err error
			if created, err = h.Records.Create(ctx, rec); err != nil {
				return err
			}
			return h.AuditLog.AttendanceCreated(ctx, r, email, created)
		})
		if errors.Is(err, attendancestore.ErrAlreadyCheckedIn) {
			return nil, actions.Fail(actions.CodeValidationFailure, "כבר דווחה נוכחות לפעיל זה היום")
		}
		if err != nil {
			return nil, err
		}
		return recordResult{Record: created}, nil
	})
}

// loadForChange reads the record named by the {id} URL parameter and checks
// the caller may change it.
func (h *Handler) loadForChange(ctx context.Context, r *http.Request) (models.AttendanceRecord, error) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		return models.AttendanceRecord{}, actions.Fail(actions.CodeNotFound, "הרשומה לא נמצאה")
	}
	sc, err := h.scope(ctx, r)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	rec, err := h.Records.GetByID(ctx, id)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if !sc.HasNeighborhood(rec.SiteID) {
		return models.AttendanceRecord{}, actions.Fail(actions.CodeForbidden, msgForbidden)
	}
	return rec, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/attendance/{id}/edit                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// EditCheckIn changes status or notes. A reason is required and lands in
// the UPDATE audit entry next to the before and after snapshots.
func (h *Handler) EditCheckIn(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "editCheckIn", func(ctx context.Context) (any, error) {
		if err := h.Window.Check(h.now()); err != nil {
			return nil, err
		}

		var in editInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeValidationFailure, msgBadRequest, err)
		}
		in.Status = normStatus(in.Status)
		in.Notes = strings.TrimSpace(in.Notes)
		in.Reason = strings.TrimSpace(in.Reason)
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, actions.Invalid(actions.CodeValidationFailure, res)
		}

		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()

		before, err := h.loadForChange(ctx, r)
		if err != nil {
			return nil, err
		}
		if before.Status == in.Status && before.Notes == in.Notes {
			return nil, actions.Fail(actions.CodeValidationFailure, "לא בוצע שינוי ברשומה")
		}

		email := authz.UserEmail(r)
		var after models.AttendanceRecord
		err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
			var err error
			if after, err = h.Records.Update(ctx, before.ID, in.Status, in.Notes); err != nil {
				return err
			}
			return h.AuditLog.AttendanceUpdated(ctx, r, email, before, after, in.Reason)
		})
		if err != nil {
			return nil, err
		}
		return recordResult{Record: after}, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/attendance/{id}/delete                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type deleteResult struct {
	ID primitive.ObjectID `json:"id"`
}

// DeleteCheckIn removes a record. The DELETE audit entry keeps the full
// record in Before and the reason in After, which is what history uses to
// show the row afterwards.
func (h *Handler) DeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "deleteCheckIn", func(ctx context.Context) (any, error) {
		if err := h.Window.Check(h.now()); err != nil {
			return nil, err
		}

		var in deleteInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeValidationFailure, msgBadRequest, err)
		}
		in.Reason = strings.TrimSpace(in.Reason)
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, actions.Invalid(actions.CodeValidationFailure, res)
		}

		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()

		rec, err := h.loadForChange(ctx, r)
		if err != nil {
			return nil, err
		}

		email := authz.UserEmail(r)
		err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
			removed, err := h.Records.Delete(ctx, rec.ID)
			if err != nil {
				return err
			}
			return h.AuditLog.AttendanceDeleted(ctx, r, email, removed, in.Reason)
		})
		if err != nil {
			return nil, err
		}
		return deleteResult{ID: rec.ID}, nil
	})
}
