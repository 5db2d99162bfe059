// internal/app/features/workers/form.go
package workers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/features/orgselect"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type formData struct {
	formutil.Base
	ID       string
	FullName string
	Phone    string
	Position string
	Cascade  orgselect.Fields
}

type workerInput struct {
	FullName string `form:"full_name" validate:"required,max=100" label:"שם מלא"`
	Phone    string `form:"phone" validate:"omitempty,phone" label:"טלפון"`
	Position string `form:"position" validate:"max=100" label:"תפקיד"`
}

// placement is where the cascade put the worker.
type placement struct {
	CityID         primitive.ObjectID
	NeighborhoodID primitive.ObjectID
	SupervisorID   primitive.ObjectID
}

func snapshot(w models.Worker) map[string]string {
	return map[string]string{
		"full_name":       w.FullName,
		"phone":           w.Phone,
		"position":        w.Position,
		"neighborhood_id": w.NeighborhoodID.Hex(),
		"supervisor_id":   w.SupervisorID.Hex(),
		"status":          w.Status,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data formData, f *cascade.Form, title string) {
	formutil.SetBase(&data.Base, r, h.DB, title, "/workers")
	data.Cascade = orgselect.NewFields(f)
	templates.Render(w, r, "worker_form", data)
}

// submitted binds the form and rebuilds its cascade; ok is false once the
// response has been written.
func (h *Handler) submitted(w http.ResponseWriter, r *http.Request, ctx context.Context, data *formData, mode cascade.Mode, title string) (in workerInput, at placement, ok bool) {
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/workers")
		return in, at, false
	}
	in.FullName = normalize.Name(in.FullName)
	in.Phone = normalize.Phone(in.Phone)
	in.Position = normalize.Name(in.Position)
	data.FullName, data.Phone, data.Position = in.FullName, in.Phone, in.Position

	f, err := h.Cascade.Replay(ctx, r, cascade.LevelSupervisor, mode, r.PostForm, 0)
	if err != nil {
		h.fail(w, r, "rebuild cascade failed", err)
		return in, at, false
	}
	res := inputval.Validate(in)
	if cerr := f.Validate(); res.HasErrors() || cerr != nil {
		data.SetInvalid(res)
		if !res.HasErrors() {
			data.SetError("יש להשלים את השיבוץ: אזור, עיר, שכונה ורכז")
		}
		h.render(w, r, *data, f, title)
		return in, at, false
	}
	at.CityID, _ = normalize.ObjectID(f.CityID)
	at.NeighborhoodID, _ = normalize.ObjectID(f.NeighborhoodID)
	at.SupervisorID, _ = normalize.ObjectID(f.SupervisorID)
	return in, at, true
}

// ServeNew renders GET /workers/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	f, err := h.Cascade.Open(ctx, r, cascade.LevelSupervisor, cascade.ModeCreate)
	if err != nil {
		h.fail(w, r, "open cascade failed", err)
		return
	}
	h.render(w, r, formData{}, f, "פעיל חדש")
}

// HandleCreate processes POST /workers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var data formData
	in, at, ok := h.submitted(w, r, ctx, &data, cascade.ModeCreate, "פעיל חדש")
	if !ok {
		return
	}
	wk, err := h.Workers.Create(ctx, models.Worker{
		FullName:       in.FullName,
		Phone:          in.Phone,
		Position:       in.Position,
		CityID:         at.CityID,
		NeighborhoodID: at.NeighborhoodID,
		SupervisorID:   at.SupervisorID,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create worker failed", err, "שמירת הפעיל נכשלה", "/workers")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityWorker, models.AuditCreate, wk.ID, &wk.CityID, nil, snapshot(wk))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.WorkersBackURL), http.StatusSeeOther)
}

// load fetches the {id} worker if it is in the caller's scope.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Worker, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, r, "bad worker id", mongo.ErrNoDocuments)
		return models.Worker{}, false
	}
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return models.Worker{}, false
	}
	wk, err := h.Workers.GetByID(ctx, id)
	if err == nil && !sc.HasNeighborhood(wk.NeighborhoodID) {
		err = mongo.ErrNoDocuments
	}
	if err != nil {
		h.fail(w, r, "load worker failed", err)
		return models.Worker{}, false
	}
	return wk, true
}

// ServeEdit renders GET /workers/{id}/edit, positioned on the worker's
// neighborhood and supervisor.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	wk, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	f, err := h.Cascade.OpenEdit(ctx, r, cascade.LevelSupervisor, cascade.LevelNeighborhood, wk.NeighborhoodID.Hex(), wk.SupervisorID.Hex())
	if errors.Is(err, cascade.ErrNotFound) {
		// The worker's neighborhood left the visible tree; start over.
		f, err = h.Cascade.Open(ctx, r, cascade.LevelSupervisor, cascade.ModeEdit)
	}
	if err != nil {
		h.fail(w, r, "open cascade failed", err)
		return
	}
	h.render(w, r, formData{ID: wk.ID.Hex(), FullName: wk.FullName, Phone: wk.Phone, Position: wk.Position}, f, "עריכת פעיל")
}

// HandleEdit processes POST /workers/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	before, ok := h.load(w, r, ctx)
	if !ok {
		return
	}

	data := formData{ID: before.ID.Hex()}
	in, at, ok := h.submitted(w, r, ctx, &data, cascade.ModeEdit, "עריכת פעיל")
	if !ok {
		return
	}
	after := before
	after.FullName, after.Phone, after.Position = in.FullName, in.Phone, in.Position
	after.CityID, after.NeighborhoodID, after.SupervisorID = at.CityID, at.NeighborhoodID, at.SupervisorID
	if err := h.Workers.Update(ctx, before.ID, after); err != nil {
		h.ErrLog.LogServerError(w, r, "update worker failed", err, "שמירת הפעיל נכשלה", "/workers")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityWorker, models.AuditUpdate, before.ID, &after.CityID, snapshot(before), snapshot(after))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.WorkersBackURL), http.StatusSeeOther)
}

// HandleStatus processes POST /workers/{id}/status (status=active|disabled).
// Disabled workers drop out of attendance boards and counts.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	before, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	status := normalize.Status(r.FormValue("status"))
	if status != models.StatusActive && status != models.StatusDisabled {
		h.ErrLog.LogBadRequest(w, r, "bad worker status", errors.New(status), "סטטוס לא תקין", "/workers")
		return
	}
	if status != before.Status {
		if err := h.Workers.SetStatus(ctx, before.ID, status); err != nil {
			h.ErrLog.LogServerError(w, r, "set worker status failed", err, "עדכון הסטטוס נכשל", "/workers")
			return
		}
		after := before
		after.Status = status
		h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityWorker, models.AuditUpdate, before.ID, &before.CityID, snapshot(before), snapshot(after))
	}
	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.WorkersBackURL), http.StatusSeeOther)
}
