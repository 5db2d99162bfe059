// internal/app/features/cities/form.go
package cities

import (
	"context"
	"errors"
	"net/http"

	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type formData struct {
	formutil.Base
	ID     string
	Name   string
	Code   string
	AreaID string
	Areas  []areaOption
}

type cityInput struct {
	Name   string `form:"name" validate:"required,max=100" label:"שם העיר"`
	Code   string `form:"code" validate:"omitempty,max=20" label:"קוד"`
	AreaID string `form:"area_id" validate:"required,objectid" label:"אזור"`
}

const msgDuplicate = "כבר קיימת עיר בשם זה באזור"

func snapshot(c models.City) map[string]string {
	return map[string]string{"name": c.Name, "code": c.Code, "area_id": c.AreaManagerID.Hex()}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, ctx context.Context, sc orgutil.Scope, data formData, title string, res inputval.Result, msg string) {
	formutil.SetBase(&data.Base, r, h.DB, title, "/cities")
	areas, err := h.Areas.List(ctx, sc.AreaFilter())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list areas failed", err, "טעינת הטופס נכשלה", "/cities")
		return
	}
	for _, a := range areas {
		data.Areas = append(data.Areas, areaOption{ID: a.ID.Hex(), Name: a.RegionName, Selected: a.ID.Hex() == data.AreaID})
	}
	data.SetInvalid(res)
	if msg != "" {
		data.SetError(msg)
	}
	templates.Render(w, r, "city_form", data)
}

// bind reads and checks the posted form. It returns false after rendering
// the form again with the problem.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, ctx context.Context, sc orgutil.Scope, data *formData, title string) (cityInput, bool) {
	var in cityInput
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/cities")
		return in, false
	}
	in.Name = normalize.Name(in.Name)
	in.Code = normalize.Name(in.Code)
	in.AreaID = normalize.FilterID(in.AreaID)
	data.Name, data.Code, data.AreaID = in.Name, in.Code, in.AreaID

	if res := inputval.Validate(in); res.HasErrors() {
		h.renderForm(w, r, ctx, sc, *data, title, res, "")
		return in, false
	}
	areaID, _ := normalize.ObjectID(in.AreaID)
	if !sc.HasArea(areaID) {
		h.renderForm(w, r, ctx, sc, *data, title, inputval.Result{}, "האזור שנבחר אינו זמין לך")
		return in, false
	}
	return in, true
}

// ServeNew renders the new-city form, preselecting ?area= when given.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "טעינת הטופס נכשלה", "/cities")
		return
	}
	h.renderForm(w, r, ctx, sc, formData{AreaID: normalize.FilterID(query.Get(r, "area"))}, "עיר חדשה", inputval.Result{}, "")
}

// HandleCreate processes POST /cities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "שמירת העיר נכשלה", "/cities")
		return
	}

	var data formData
	in, ok := h.bind(w, r, ctx, sc, &data, "עיר חדשה")
	if !ok {
		return
	}
	areaID, _ := normalize.ObjectID(in.AreaID)
	c, err := h.Cities.Create(ctx, models.City{Name: in.Name, Code: in.Code, AreaManagerID: areaID})
	if err != nil {
		msg := "שמירת העיר נכשלה"
		if errors.Is(err, citystore.ErrDuplicateCity) {
			msg = msgDuplicate
		}
		h.renderForm(w, r, ctx, sc, data, "עיר חדשה", inputval.Result{}, msg)
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityCity, models.AuditCreate, c.ID, &c.ID, nil, snapshot(c))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.CitiesBackURL), http.StatusSeeOther)
}

func (h *Handler) loadCity(w http.ResponseWriter, r *http.Request, ctx context.Context, sc orgutil.Scope) (models.City, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return models.City{}, false
	}
	c, err := h.Cities.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !sc.HasArea(c.AreaManagerID)) {
		http.NotFound(w, r)
		return models.City{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load city failed", err, "טעינת העיר נכשלה", "/cities")
		return models.City{}, false
	}
	return c, true
}

// ServeEdit renders GET /cities/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "טעינת העיר נכשלה", "/cities")
		return
	}
	c, ok := h.loadCity(w, r, ctx, sc)
	if !ok {
		return
	}
	data := formData{ID: c.ID.Hex(), Name: c.Name, Code: c.Code, AreaID: c.AreaManagerID.Hex()}
	h.renderForm(w, r, ctx, sc, data, "עריכת עיר", inputval.Result{}, "")
}

// HandleEdit processes POST /cities/{id}/edit. Moving a city between
// areas requires access to both.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "שמירת העיר נכשלה", "/cities")
		return
	}
	before, ok := h.loadCity(w, r, ctx, sc)
	if !ok {
		return
	}

	data := formData{ID: before.ID.Hex()}
	in, ok := h.bind(w, r, ctx, sc, &data, "עריכת עיר")
	if !ok {
		return
	}
	areaID, _ := normalize.ObjectID(in.AreaID)
	if err := h.Cities.Update(ctx, before.ID, in.Name, in.Code, areaID); err != nil {
		msg := "שמירת העיר נכשלה"
		if errors.Is(err, citystore.ErrDuplicateCity) {
			msg = msgDuplicate
		}
		h.renderForm(w, r, ctx, sc, data, "עריכת עיר", inputval.Result{}, msg)
		return
	}
	after := before
	after.Name, after.Code, after.AreaManagerID = in.Name, in.Code, areaID
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityCity, models.AuditUpdate, before.ID, &before.ID, snapshot(before), snapshot(after))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.CitiesBackURL), http.StatusSeeOther)
}
