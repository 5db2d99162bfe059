// internal/app/features/wiki/view.go
package wiki

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type pageLink struct {
	Slug  string
	Title string
}

type category struct {
	Name  string
	Pages []pageLink
}

type indexVM struct {
	viewdata.BaseVM
	Categories []category
	CanEdit    bool
}

type pageVM struct {
	viewdata.BaseVM
	Slug      string
	Body      template.HTML
	UpdatedBy string
	CanEdit   bool
}

// ServeIndex lists pages grouped by category, in store order.
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pages, err := h.Pages.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list wiki pages failed", err, "טעינת דפי העזרה נכשלה", "/dashboard")
		return
	}
	vm := indexVM{
		BaseVM:  viewdata.NewBaseVM(r, h.DB, "עזרה", "/dashboard"),
		CanEdit: authz.IsSuperAdmin(r),
	}
	for _, p := range pages {
		name := p.Category
		if name == "" {
			name = "כללי"
		}
		if n := len(vm.Categories); n == 0 || vm.Categories[n-1].Name != name {
			vm.Categories = append(vm.Categories, category{Name: name})
		}
		last := &vm.Categories[len(vm.Categories)-1]
		last.Pages = append(last.Pages, pageLink{Slug: p.Slug, Title: p.Title})
	}
	templates.Render(w, r, "wiki_index", vm)
}

// ServePage shows one page. Bodies are sanitized again on the way out.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !validSlug(slug) {
		uierrors.RenderNotFound(w, r, "/wiki")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Pages.GetBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if authz.IsSuperAdmin(r) {
			http.Redirect(w, r, "/wiki/"+slug+"/edit", http.StatusSeeOther)
			return
		}
		uierrors.RenderNotFound(w, r, "/wiki")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load wiki page failed", err, "טעינת הדף נכשלה", "/wiki")
		return
	}
	vm := pageVM{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, p.Title, "/wiki"),
		Slug:      p.Slug,
		Body:      htmlsanitize.PrepareBody(p.Body),
		UpdatedBy: p.UpdatedByName,
		CanEdit:   authz.IsSuperAdmin(r),
	}
	templates.Render(w, r, "wiki_page", vm)
}
