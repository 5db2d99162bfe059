// internal/app/features/users/form.go
package users

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/authutil"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/gates"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	msgEmailTaken = "כתובת הדוא\"ל כבר רשומה במערכת"
	msgCityNeeded = "יש לבחור עיר"
)

type cityOption struct {
	ID       string
	Name     string
	Selected bool
}

type formData struct {
	formutil.Base
	ID       string
	FullName string
	Email    string
	Phone    string
	Title    string
	Role     string
	Status   string
	CityID   string
	Roles    []roleOption
	Cities   []cityOption
	ShowCity bool
	Self     bool
}

type userInput struct {
	FullName string `form:"full_name" validate:"required,max=100" label:"שם מלא"`
	Email    string `form:"email" validate:"required,emailaddr" label:"דוא\"ל"`
	Phone    string `form:"phone" validate:"omitempty,phone" label:"טלפון"`
	Title    string `form:"title" validate:"max=100" label:"תפקיד"`
	Role     string `form:"role"`
	Status   string `form:"status"`
	CityID   string `form:"city_id"`
}

func (in *userInput) normalize() {
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	in.Phone = normalize.Phone(in.Phone)
	in.Title = normalize.Name(in.Title)
	in.Role = normalize.Role(in.Role)
	in.Status = normalize.Status(in.Status)
	in.CityID = normalize.FilterID(in.CityID)
}

type createdData struct {
	formutil.Base
	ID           string
	FullName     string
	Email        string
	TempPassword string
	Reset        bool
}

func snapshot(u models.User) map[string]string {
	m := map[string]string{
		"full_name": u.FullName,
		"email":     u.Email,
		"phone":     u.Phone,
		"title":     u.Title,
		"role":      u.Role,
		"status":    u.Status,
	}
	if u.CityID != nil {
		m["city_id"] = u.CityID.Hex()
	}
	return m
}

// options fills the role and city selects of data.
func (h *Handler) options(ctx context.Context, data *formData, actor string, sc orgutil.Scope, roles []string) error {
	data.Roles = data.Roles[:0]
	for _, role := range roles {
		data.Roles = append(data.Roles, roleOption{Value: role, Label: models.RoleLabel(role), Selected: role == data.Role})
	}
	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		return err
	}
	data.Cities = data.Cities[:0]
	for _, c := range hier.Cities {
		data.Cities = append(data.Cities, cityOption{ID: c.ID.Hex(), Name: c.Name, Selected: c.ID.Hex() == data.CityID})
	}
	return nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data formData, title string) {
	formutil.SetBase(&data.Base, r, h.DB, title, "/users")
	templates.Render(w, r, "user_form", data)
}

// bind reads and validates the posted form; ok is false once the form was
// re-rendered with errors.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, data *formData) (in userInput, ok bool) {
	if err := formutil.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "הטופס אינו תקין", "/users")
		return in, false
	}
	in.normalize()
	data.FullName, data.Email, data.Phone, data.Title = in.FullName, in.Email, in.Phone, in.Title
	data.CityID = in.CityID
	if res := inputval.Validate(in); res.HasErrors() {
		data.SetInvalid(res)
	}
	return in, true
}

// cityFor checks the posted city against the caller's scope.
func cityFor(in userInput, sc orgutil.Scope, data *formData) (primitive.ObjectID, bool) {
	id, ok := normalize.ObjectID(in.CityID)
	if !ok || !sc.HasCity(id) {
		data.fieldError("CityID", msgCityNeeded)
		return primitive.NilObjectID, false
	}
	return id, true
}

// fieldError marks field invalid; the banner keeps the first message.
func (data *formData) fieldError(field, msg string) {
	if data.FieldErrors == nil {
		data.FieldErrors = map[string]string{}
	}
	data.FieldErrors[field] = msg
	if data.Error == "" {
		data.SetError(msg)
	}
}

func (data *formData) emailTaken() { data.fieldError("Email", msgEmailTaken) }

/*─────────────────────────────────────────────────────────────────────────────*
| GET /users/new, POST /users                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeNew renders the new-user form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireOrgManager(w, r, "אין לך הרשאה ליצור משתמשים", "/users")
	if !g.OK {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return
	}
	roles := creatableRoles(g.Role)
	data := formData{Role: roles[len(roles)-1], ShowCity: true}
	if err := h.options(ctx, &data, g.Role, sc, roles); err != nil {
		h.fail(w, r, "load cities failed", err)
		return
	}
	h.render(w, r, data, "משתמש חדש")
}

// HandleCreate creates the account with a temporary password and shows the
// password once.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireOrgManager(w, r, "אין לך הרשאה ליצור משתמשים", "/users")
	if !g.OK {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return
	}

	roles := creatableRoles(g.Role)
	data := formData{ShowCity: true}
	in, ok := h.bind(w, r, &data)
	if !ok {
		return
	}
	data.Role = in.Role
	if !allowed(in.Role, roles) {
		data.Role = roles[len(roles)-1]
		data.fieldError("Role", "תפקיד לא תקין")
	}

	u := models.User{FullName: in.FullName, Email: in.Email, Phone: in.Phone, Title: in.Title, Role: data.Role}
	if needsCity(data.Role) {
		if id, ok := cityFor(in, sc, &data); ok {
			u.CityID = &id
		}
	}
	if data.Error == "" {
		if _, err := h.Users.GetByEmail(ctx, in.Email); err == nil {
			data.emailTaken()
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			h.fail(w, r, "lookup email failed", err)
			return
		}
	}
	if data.Error != "" {
		if err := h.options(ctx, &data, g.Role, sc, roles); err != nil {
			h.fail(w, r, "load cities failed", err)
			return
		}
		h.render(w, r, data, "משתמש חדש")
		return
	}

	temp, err := authutil.TempPassword()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "temp password failed", err, "יצירת המשתמש נכשלה", "/users")
		return
	}
	hash, err := authutil.HashPassword(temp)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "יצירת המשתמש נכשלה", "/users")
		return
	}
	u.PasswordHash = hash
	u.MustChangePassword = true

	created, err := h.Users.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		data.emailTaken()
		if err := h.options(ctx, &data, g.Role, sc, roles); err != nil {
			h.fail(w, r, "load cities failed", err)
			return
		}
		h.render(w, r, data, "משתמש חדש")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "יצירת המשתמש נכשלה", "/users")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityUser, models.AuditCreate, created.ID, created.CityID, nil, snapshot(created))

	out := createdData{ID: created.ID.Hex(), FullName: created.FullName, Email: created.Email, TempPassword: temp}
	formutil.SetBase(&out.Base, r, h.DB, "המשתמש נוצר", "/users")
	templates.Render(w, r, "user_password", out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /users/{id}/edit                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// load fetches the {id} user when the caller may manage them.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.User, string, orgutil.Scope, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, r, "bad user id", mongo.ErrNoDocuments)
		return models.User{}, "", orgutil.Scope{}, false
	}
	actor, _ := authz.Role(r)
	sc, err := h.scope(ctx, r)
	if err != nil {
		h.fail(w, r, "resolve scope failed", err)
		return models.User{}, "", orgutil.Scope{}, false
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, "load user failed", err)
		return models.User{}, "", orgutil.Scope{}, false
	}
	if !canManage(actor, sc, *u) {
		h.fail(w, r, "user not managed", errNotManaged)
		return models.User{}, "", orgutil.Scope{}, false
	}
	return *u, actor, sc, true
}

func isSelf(r *http.Request, id primitive.ObjectID) bool {
	_, _, uid, _ := authz.UserCtx(r)
	return uid == id
}

func editData(u models.User, self bool) formData {
	d := formData{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Title:    u.Title,
		Role:     u.Role,
		Status:   u.Status,
		ShowCity: u.Role == models.RoleCityCoordinator,
		Self:     self,
	}
	if u.CityID != nil {
		d.CityID = u.CityID.Hex()
	}
	return d
}

// ServeEdit renders the edit form.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	u, actor, sc, ok := h.load(w, r, ctx)
	if !ok {
		return
	}
	data := editData(u, isSelf(r, u.ID))
	if err := h.options(ctx, &data, actor, sc, nil); err != nil {
		h.fail(w, r, "load cities failed", err)
		return
	}
	h.render(w, r, data, "עריכת משתמש")
}

// HandleEdit saves contact details, status and, for city coordinators, the
// city. Roles are fixed once created, and nobody can disable themselves.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	before, actor, sc, ok := h.load(w, r, ctx)
	if !ok {
		return
	}

	self := isSelf(r, before.ID)
	data := editData(before, self)
	in, ok := h.bind(w, r, &data)
	if !ok {
		return
	}
	if in.Status != models.StatusActive && in.Status != models.StatusDisabled {
		in.Status = before.Status
	}
	if self {
		in.Status = models.StatusActive
	}
	data.Status = in.Status

	after := before
	after.FullName, after.Email, after.Phone, after.Title, after.Status = in.FullName, in.Email, in.Phone, in.Title, in.Status
	if data.ShowCity {
		if id, ok := cityFor(in, sc, &data); ok {
			after.CityID = &id
		}
	}
	if data.Error == "" && in.Email != before.Email {
		taken, err := h.Users.EmailExistsForOther(ctx, in.Email, before.ID)
		if err != nil {
			h.fail(w, r, "lookup email failed", err)
			return
		}
		if taken {
			data.emailTaken()
		}
	}
	if data.Error != "" {
		if err := h.options(ctx, &data, actor, sc, nil); err != nil {
			h.fail(w, r, "load cities failed", err)
			return
		}
		h.render(w, r, data, "עריכת משתמש")
		return
	}

	err := h.Users.UpdateProfile(ctx, before.ID, userstore.ProfileUpdate{
		FullName: after.FullName,
		Email:    after.Email,
		Phone:    after.Phone,
		Title:    after.Title,
		Status:   after.Status,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		data.emailTaken()
		if err := h.options(ctx, &data, actor, sc, nil); err != nil {
			h.fail(w, r, "load cities failed", err)
			return
		}
		h.render(w, r, data, "עריכת משתמש")
		return
	}
	if err == nil && data.ShowCity && after.CityID != nil && (before.CityID == nil || *before.CityID != *after.CityID) {
		err = h.Users.SetCity(ctx, before.ID, *after.CityID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update user failed", err, "שמירת המשתמש נכשלה", "/users")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityUser, models.AuditUpdate, before.ID, after.CityID, snapshot(before), snapshot(after))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.UsersBackURL), http.StatusSeeOther)
}
