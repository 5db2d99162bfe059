// internal/app/features/orgselect/select.go
package orgselect

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cascade/select                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSelect re-renders the cascade after one select changed. The
// posted "changed" field names the level; everything below it is cleared
// and its options are rebuilt.
func (h *Handler) ServeSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderFailure(w, r, "cascadeSelect", actions.Wrap(actions.CodeValidationFailure, msgBadRequest, err))
		return
	}
	depth, mode := formShape(r.PostForm)
	changed, _ := cascade.ParseLevel(r.PostForm.Get("changed"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Replay(ctx, r, depth, mode, r.PostForm, changed)
	if err != nil {
		h.renderFailure(w, r, "cascadeSelect", err)
		return
	}
	if changed != 0 {
		f.ValidateField(changed)
	}
	templates.RenderSnippet(w, "cascade_fields", NewFields(f))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cascade/quick                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeQuickCreate is the HTMX flavor of QuickCreateSupervisor: it creates
// the supervisor, selects it and re-renders the cascade with the one-time
// password shown.
func (h *Handler) ServeQuickCreate(w http.ResponseWriter, r *http.Request) {
	var in quickInput
	if err := formutil.Bind(r, &in); err != nil {
		h.renderFailure(w, r, "cascadeQuickCreate", actions.Wrap(actions.CodeQuickCreateFailure, msgBadRequest, err))
		return
	}
	depth, mode := formShape(r.PostForm)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Replay(ctx, r, depth, mode, r.PostForm, 0)
	if err != nil {
		h.renderFailure(w, r, "cascadeQuickCreate", err)
		return
	}

	res, err := h.createSupervisor(ctx, r, in)
	if err != nil {
		vm := NewFields(f)
		c := actions.Classify(err)
		if c.Code == actions.CodeInternal || c.Code == actions.CodeFetchFailure {
			h.report(r, "cascadeQuickCreate", err)
		}
		vm.Quick.Show = true
		vm.Quick.Input = in.supervisor()
		vm.Quick.Errors = c.Fields
		vm.Quick.Error = c.Error
		templates.RenderSnippet(w, "cascade_fields", vm)
		return
	}

	if err := f.AddSupervisor(res.Supervisor); err != nil {
		h.Log.Warn("quick-created supervisor not added to form", zap.Error(err))
	}
	vm := NewFields(f)
	vm.Quick.Created = res.Supervisor.Label
	vm.Quick.TempPassword = res.TempPassword
	templates.RenderSnippet(w, "cascade_fields", vm)
}

// renderFailure renders the fragment with a banner in place of the selects.
// HTMX swaps only 2xx responses, so the status stays 200.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	c := actions.Classify(err)
	var ae *actions.Error
	if !errors.As(err, &ae) || c.Code == actions.CodeInternal || c.Code == actions.CodeFetchFailure {
		h.report(r, op, err)
	}
	templates.RenderSnippet(w, "cascade_fields", Fields{Error: c.Error})
}

func (h *Handler) report(r *http.Request, op string, err error) {
	if h.ErrLog != nil {
		h.ErrLog.Report(r, op, err)
		return
	}
	h.Log.Error("cascade request failed", zap.String("op", op), zap.Error(err))
}
