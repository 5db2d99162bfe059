// internal/app/features/areas/form.go
package areas

import (
	"context"
	"errors"
	"net/http"

	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
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

var errNotManager = errors.New("selected user is not an area manager")

func (h *Handler) managerOptions(ctx context.Context, selected string) ([]managerOption, error) {
	users, err := h.Users.ListByRole(ctx, models.RoleAreaManager, nil)
	if err != nil {
		return nil, err
	}
	out := make([]managerOption, 0, len(users))
	for _, u := range users {
		out = append(out, managerOption{ID: u.ID.Hex(), Name: u.FullName, Selected: u.ID.Hex() == selected})
	}
	return out, nil
}

// resolveManager loads the chosen manager; an empty id means none.
func (h *Handler) resolveManager(ctx context.Context, hex string) (*primitive.ObjectID, string, error) {
	id, ok := normalize.ObjectID(hex)
	if !ok {
		return nil, "", nil
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if u.Role != models.RoleAreaManager {
		return nil, "", errNotManager
	}
	return &u.ID, u.FullName, nil
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, ctx context.Context, data formData, title string, res inputval.Result, msg string) {
	formutil.SetBase(&data.Base, r, h.DB, title, "/areas")
	mgrs, err := h.managerOptions(ctx, data.ManagerID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list area managers failed", err, "טעינת הטופס נכשלה", "/areas")
		return
	}
	data.Managers = mgrs
	data.SetInvalid(res)
	if msg != "" {
		data.SetError(msg)
	}
	templates.Render(w, r, "area_form", data)
}

func snapshot(a models.Area) map[string]string {
	m := map[string]string{"region_name": a.RegionName, "manager_name": a.ManagerName}
	if a.ManagerID != nil {
		m["manager_id"] = a.ManagerID.Hex()
	}
	return m
}

// ServeNew renders the "new area" form. Superadmin only (routes.go).
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	h.renderForm(w, r, ctx, formData{}, "אזור חדש", inputval.Result{}, "")
}

// HandleCreate processes POST /areas.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in areaInput
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/areas")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.ManagerID = normalize.FilterID(in.ManagerID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := formData{Name: in.Name, ManagerID: in.ManagerID}
	if res := inputval.Validate(in); res.HasErrors() {
		h.renderForm(w, r, ctx, data, "אזור חדש", res, "")
		return
	}
	mgrID, mgrName, err := h.resolveManager(ctx, in.ManagerID)
	if err != nil {
		h.renderForm(w, r, ctx, data, "אזור חדש", inputval.Result{}, "מנהל האזור שנבחר אינו תקין")
		return
	}

	a, err := h.Areas.Create(ctx, models.Area{RegionName: in.Name, ManagerID: mgrID, ManagerName: mgrName})
	if err != nil {
		msg := "שמירת האזור נכשלה"
		if errors.Is(err, areastore.ErrDuplicateArea) {
			msg = "כבר קיים אזור בשם זה"
		}
		h.renderForm(w, r, ctx, data, "אזור חדש", inputval.Result{}, msg)
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityArea, models.AuditCreate, a.ID, nil, nil, snapshot(a))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AreasBackURL), http.StatusSeeOther)
}

func (h *Handler) loadArea(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Area, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "bad area id", errors.New(chi.URLParam(r, "id")), "מזהה אזור שגוי", "/areas")
		return models.Area{}, false
	}
	a, err := h.Areas.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.NotFound(w, r)
		return models.Area{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load area failed", err, "טעינת האזור נכשלה", "/areas")
		return models.Area{}, false
	}
	return a, true
}

// ServeEdit renders GET /areas/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.loadArea(w, r, ctx)
	if !ok {
		return
	}
	data := formData{ID: a.ID.Hex(), Name: a.RegionName}
	if a.ManagerID != nil {
		data.ManagerID = a.ManagerID.Hex()
	}
	h.renderForm(w, r, ctx, data, "עריכת אזור", inputval.Result{}, "")
}

// HandleEdit processes POST /areas/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	before, ok := h.loadArea(w, r, ctx)
	if !ok {
		return
	}

	var in areaInput
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/areas")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.ManagerID = normalize.FilterID(in.ManagerID)

	data := formData{ID: before.ID.Hex(), Name: in.Name, ManagerID: in.ManagerID}
	if res := inputval.Validate(in); res.HasErrors() {
		h.renderForm(w, r, ctx, data, "עריכת אזור", res, "")
		return
	}
	mgrID, mgrName, err := h.resolveManager(ctx, in.ManagerID)
	if err != nil {
		h.renderForm(w, r, ctx, data, "עריכת אזור", inputval.Result{}, "מנהל האזור שנבחר אינו תקין")
		return
	}
	if err := h.Areas.Update(ctx, before.ID, in.Name, mgrID, mgrName); err != nil {
		msg := "שמירת האזור נכשלה"
		if errors.Is(err, areastore.ErrDuplicateArea) {
			msg = "כבר קיים אזור בשם זה"
		}
		h.renderForm(w, r, ctx, data, "עריכת אזור", inputval.Result{}, msg)
		return
	}
	after := before
	after.RegionName, after.ManagerID, after.ManagerName = in.Name, mgrID, mgrName
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityArea, models.AuditUpdate, before.ID, nil, snapshot(before), snapshot(after))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AreasBackURL), http.StatusSeeOther)
}

// HandleDelete processes POST /areas/{id}/delete. Areas that still hold
// cities are kept.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	a, ok := h.loadArea(w, r, ctx)
	if !ok {
		return
	}
	n, err := h.Cities.CountByArea(ctx, a.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count cities failed", err, "מחיקת האזור נכשלה", "/areas")
		return
	}
	if n > 0 {
		http.Redirect(w, r, "/areas?error=has_cities", http.StatusSeeOther)
		return
	}
	if _, err := h.Areas.Delete(ctx, a.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete area failed", err, "מחיקת האזור נכשלה", "/areas")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityArea, models.AuditDelete, a.ID, nil, snapshot(a), nil)
	http.Redirect(w, r, "/areas", http.StatusSeeOther)
}
