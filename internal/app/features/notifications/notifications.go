// internal/app/features/notifications/notifications.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/navigation"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const inboxSize = 100

var inboxBack = navigation.BackURLOptions{Fallback: "/notifications"}

type notificationRow struct {
	ID    string
	Title string
	Body  string
	URL   string
	When  string
	Read  bool
}

// ListVM is the inbox page.
type ListVM struct {
	viewdata.BaseVM
	Items []notificationRow
}

// List shows the signed-in user's newest notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Store.ListForUser(ctx, uid, inboxSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list notifications failed", err, "טעינת ההתראות נכשלה", "/dashboard")
		return
	}
	vm := ListVM{BaseVM: viewdata.NewBaseVM(r, h.DB, "התראות", "/dashboard")}
	for _, n := range list {
		vm.Items = append(vm.Items, notificationRow{
			ID:    n.ID.Hex(),
			Title: n.Title,
			Body:  n.Body,
			URL:   n.URL,
			When:  n.CreatedAt.In(h.Loc).Format("02/01 15:04"),
			Read:  n.Read,
		})
	}
	templates.Render(w, r, "notifications_list", vm)
}

// MarkRead marks one notification read and follows its link, which the
// form posts as "return".
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	id, valid := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok || !valid {
		http.Redirect(w, r, "/notifications", http.StatusSeeOther)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Store.MarkRead(ctx, uid, id); err != nil {
		h.ErrLog.LogServerError(w, r, "mark notification read failed", err, "עדכון ההתראה נכשל", "/notifications")
		return
	}
	http.Redirect(w, r, navigation.SafeBackURL(r, inboxBack), http.StatusSeeOther)
}

// MarkAllRead clears the unread badge.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Store.MarkAllRead(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark all notifications read failed", err, "עדכון ההתראות נכשל", "/notifications")
		return
	}
	h.Log.Debug("notifications marked read", zap.String("user_id", uid.Hex()), zap.Int64("count", n))
	http.Redirect(w, r, "/notifications", http.StatusSeeOther)
}
