// internal/app/features/wiki/edit.go
package wiki

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/limits"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type pageInput struct {
	Title    string `form:"title" validate:"required,max=200" label:"כותרת"`
	Category string `form:"category" validate:"max=100" label:"קטגוריה"`
	Body     string `form:"body" validate:"max=200000" label:"תוכן"`
}

type editVM struct {
	formutil.Base
	Slug  string
	IsNew bool
	Input pageInput
}

// ServeNew handles GET /wiki/new?slug=: it checks the slug and moves on to
// the edit form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("slug")))
	if slug == "" {
		var vm editVM
		formutil.SetBase(&vm.Base, r, h.DB, "דף חדש", "/wiki")
		vm.IsNew = true
		templates.Render(w, r, "wiki_new", vm)
		return
	}
	if !validSlug(slug) {
		var vm editVM
		formutil.SetBase(&vm.Base, r, h.DB, "דף חדש", "/wiki")
		vm.IsNew = true
		vm.Slug = slug
		vm.SetError("כתובת הדף יכולה להכיל רק אותיות לועזיות קטנות, ספרות ומקפים")
		templates.Render(w, r, "wiki_new", vm)
		return
	}
	http.Redirect(w, r, "/wiki/"+slug+"/edit", http.StatusSeeOther)
}

// ServeEdit shows the editor. A missing page opens an empty form.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !validSlug(slug) {
		uierrors.RenderNotFound(w, r, "/wiki")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	vm := editVM{Slug: slug}
	p, err := h.Pages.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		vm.IsNew = true
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load wiki page failed", err, "טעינת הדף נכשלה", "/wiki")
		return
	default:
		vm.Input = pageInput{Title: p.Title, Category: p.Category, Body: p.Body}
	}
	formutil.SetBase(&vm.Base, r, h.DB, "עריכת דף עזרה", "/wiki/"+slug)
	templates.Render(w, r, "wiki_edit", vm)
}

// HandleEdit saves the page. The body is sanitized before it is stored.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !validSlug(slug) {
		uierrors.RenderNotFound(w, r, "/wiki")
		return
	}
	vm := editVM{Slug: slug}
	formutil.SetBase(&vm.Base, r, h.DB, "עריכת דף עזרה", "/wiki/"+slug)
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxWikiPageSize)
	if err := formutil.Bind(r, &vm.Input); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bind wiki page failed", err, "נתוני הטופס אינם תקינים", "/wiki/"+slug)
		return
	}
	vm.Input.Title = normalize.Name(vm.Input.Title)
	vm.Input.Category = normalize.Name(vm.Input.Category)
	vm.Input.Body = htmlsanitize.Sanitize(strings.TrimSpace(vm.Input.Body))
	if res := inputval.Validate(vm.Input); res.HasErrors() {
		vm.SetInvalid(res)
		templates.Render(w, r, "wiki_edit", vm)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	before, err := h.Pages.GetBySlug(ctx, slug)
	isNew := errors.Is(err, mongo.ErrNoDocuments)
	if err != nil && !isNew {
		h.ErrLog.LogServerError(w, r, "load wiki page failed", err, "שמירת הדף נכשלה", "/wiki")
		return
	}

	_, name, _, _ := authz.UserCtx(r)
	if err := h.Pages.Upsert(ctx, models.WikiPage{
		Slug:          slug,
		Title:         vm.Input.Title,
		Category:      vm.Input.Category,
		Body:          vm.Input.Body,
		UpdatedByName: name,
	}); err != nil {
		h.Log.Error("failed to save wiki page", zap.String("slug", slug), zap.Error(err))
		vm.SetError("שמירת הדף נכשלה")
		templates.Render(w, r, "wiki_edit", vm)
		return
	}

	after, err := h.Pages.GetBySlug(ctx, slug)
	if err != nil {
		h.Log.Warn("reload wiki page for audit failed", zap.String("slug", slug), zap.Error(err))
	} else {
		action := models.AuditUpdate
		var prev map[string]string
		if isNew {
			action = models.AuditCreate
		} else {
			prev = map[string]string{"title": before.Title, "category": before.Category}
		}
		h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityWikiPage, action, after.ID, nil, prev,
			map[string]string{"title": after.Title, "category": after.Category})
	}
	http.Redirect(w, r, "/wiki/"+slug, http.StatusSeeOther)
}

// HandleDelete removes a page.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !validSlug(slug) {
		uierrors.RenderNotFound(w, r, "/wiki")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Pages.GetBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Redirect(w, r, "/wiki", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load wiki page failed", err, "מחיקת הדף נכשלה", "/wiki")
		return
	}
	if _, err := h.Pages.Delete(ctx, slug); err != nil {
		h.ErrLog.LogServerError(w, r, "delete wiki page failed", err, "מחיקת הדף נכשלה", "/wiki")
		return
	}
	h.AuditLog.Changed(ctx, r, authz.UserEmail(r), models.EntityWikiPage, models.AuditDelete, p.ID, nil,
		map[string]string{"slug": p.Slug, "title": p.Title}, nil)
	http.Redirect(w, r, "/wiki", http.StatusSeeOther)
}
