// internal/app/features/neighborhoods/form.go
package neighborhoods

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/orgselect"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
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
	"go.uber.org/zap"
)

type formData struct {
	formutil.Base
	ID      string
	Name    string
	Address string
	Cascade orgselect.Fields
}

type neighborhoodInput struct {
	Name    string `form:"name" validate:"required,max=100" label:"שם השכונה"`
	Address string `form:"address" validate:"max=200" label:"כתובת"`
}

const msgDuplicate = "כבר קיימת שכונה בשם זה בעיר"

func snapshot(n models.Neighborhood) map[string]string {
	return map[string]string{"name": n.Name, "address": n.Address, "city_id": n.CityID.Hex()}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data formData, f *cascade.Form, title string) {
	formutil.SetBase(&data.Base, r, h.DB, title, "/neighborhoods")
	data.Cascade = orgselect.NewFields(f)
	templates.Render(w, r, "neighborhood_form", data)
}

// submitted binds the posted form and rebuilds its cascade. ok is false
// when the page was already written (re-rendered or failed).
func (h *Handler) submitted(w http.ResponseWriter, r *http.Request, ctx context.Context, data *formData, mode cascade.Mode, title string) (in neighborhoodInput, cityID primitive.ObjectID, ok bool) {
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/neighborhoods")
		return in, cityID, false
	}
	in.Name = normalize.Name(in.Name)
	in.Address = normalize.Name(in.Address)
	data.Name, data.Address = in.Name, in.Address

	f, err := h.Cascade.Replay(ctx, r, cascade.LevelCity, mode, r.PostForm, 0)
	if err != nil {
		h.fail(w, r, "rebuild city selection failed", err)
		return in, cityID, false
	}
	res := inputval.Validate(in)
	cascadeErr := f.Validate()
	if res.HasErrors() || cascadeErr != nil {
		data.SetInvalid(res)
		if !res.HasErrors() {
			data.SetError("יש לבחור עיר")
		}
		h.render(w, r, *data, f, title)
		return in, cityID, false
	}
	// The dataset is scoped, so a selected city is always one the user may use.
	cityID, _ = normalize.ObjectID(f.CityID)
	return in, cityID, true
}

// ServeNew renders GET /neighborhoods/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	f, err := h.Cascade.Open(ctx, r, cascade.LevelCity, cascade.ModeCreate)
	if err != nil {
		h.fail(w, r, "open city selection failed", err)
		return
	}
	h.render(w, r, formData{}, f, "שכונה חדשה")
}

// HandleCreate processes POST /neighborhoods.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var data formData
	in, cityID, ok := h.submitted(w, r, ctx, &data, cascade.ModeCreate, "שכונה חדשה")
	if !ok {
		return
	}
	n, err := h.Neighborhoods.Create(ctx, models.Neighborhood{Name: in.Name, Address: in.Address, CityID: cityID})
	if err != nil {
		h.retry(w, r, ctx, data, cascade.ModeCreate, "שכונה חדשה", err)
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityNeighborhood, models.AuditCreate, n.ID, &cityID, nil, snapshot(n))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.NeighborhoodsBackURL), http.StatusSeeOther)
}

// retry shows the form again after a failed write.
func (h *Handler) retry(w http.ResponseWriter, r *http.Request, ctx context.Context, data formData, mode cascade.Mode, title string, err error) {
	f, ferr := h.Cascade.Replay(ctx, r, cascade.LevelCity, mode, r.PostForm, 0)
	if ferr != nil {
		h.fail(w, r, "rebuild city selection failed", ferr)
		return
	}
	if errors.Is(err, neighborhoodstore.ErrDuplicateNeighborhood) {
		data.SetError(msgDuplicate)
	} else {
		h.Log.Error("save neighborhood failed", zap.Error(err))
		data.SetError("שמירת השכונה נכשלה")
	}
	h.render(w, r, data, f, title)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Neighborhood, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		uierrors.RenderNotFound(w, r, "/neighborhoods")
		return models.Neighborhood{}, false
	}
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return models.Neighborhood{}, false
	}
	if !sc.HasNeighborhood(id) {
		uierrors.RenderNotFound(w, r, "/neighborhoods")
		return models.Neighborhood{}, false
	}
	n, err := h.Neighborhoods.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "/neighborhoods")
		return models.Neighborhood{}, false
	}
	if err != nil {
		h.fail(w, r, "load neighborhood failed", err)
		return models.Neighborhood{}, false
	}
	return n, true
}

// ServeEdit renders GET /neighborhoods/{id}/edit with the city preselected.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	n, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	f, err := h.Cascade.OpenEdit(ctx, r, cascade.LevelCity, cascade.LevelCity, n.CityID.Hex(), "")
	if err != nil {
		h.fail(w, r, "open city selection failed", err)
		return
	}
	h.render(w, r, formData{ID: n.ID.Hex(), Name: n.Name, Address: n.Address}, f, "עריכת שכונה")
}

// HandleEdit processes POST /neighborhoods/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	before, ok := h.load(w, r, ctx)
	if !ok {
		return
	}

	data := formData{ID: before.ID.Hex()}
	in, cityID, ok := h.submitted(w, r, ctx, &data, cascade.ModeEdit, "עריכת שכונה")
	if !ok {
		return
	}
	after := before
	after.Name, after.Address, after.CityID = in.Name, in.Address, cityID
	if err := h.Neighborhoods.Update(ctx, before.ID, after); err != nil {
		h.retry(w, r, ctx, data, cascade.ModeEdit, "עריכת שכונה", err)
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityNeighborhood, models.AuditUpdate, before.ID, &cityID, snapshot(before), snapshot(after))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.NeighborhoodsBackURL), http.StatusSeeOther)
}
