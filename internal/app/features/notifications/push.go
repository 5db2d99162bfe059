// internal/app/features/notifications/push.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
)

const msgBadSubscription = "פרטי המנוי להתראות אינם תקינים"

// subscriptionInput is the browser's PushSubscription.toJSON().
type subscriptionInput struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=2048"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required,max=256"`
		Auth   string `json:"auth" validate:"required,max=256"`
	} `json:"keys"`
}

type unsubscribeInput struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=2048"`
}

// Subscribe handles POST /notifications/push/subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "pushSubscribe", func(ctx context.Context) (any, error) {
		_, _, uid, ok := authz.UserCtx(r)
		if !ok {
			return nil, actions.Fail(actions.CodeForbidden, "יש להתחבר מחדש")
		}
		var in subscriptionInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeValidationFailure, msgBadSubscription, err)
		}
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, actions.Fail(actions.CodeValidationFailure, msgBadSubscription)
		}

		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		err := h.Store.Subscribe(ctx, models.PushSubscription{
			UserID:    uid,
			Endpoint:  in.Endpoint,
			P256dh:    in.Keys.P256dh,
			Auth:      in.Keys.Auth,
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			return nil, err
		}
		return map[string]bool{"subscribed": true}, nil
	})
}

// Unsubscribe handles POST /notifications/push/unsubscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "pushUnsubscribe", func(ctx context.Context) (any, error) {
		var in unsubscribeInput
		if err := formutil.Bind(r, &in); err != nil {
			return nil, actions.Wrap(actions.CodeValidationFailure, msgBadSubscription, err)
		}
		if res := inputval.Validate(in); res.HasErrors() {
			return nil, actions.Fail(actions.CodeValidationFailure, msgBadSubscription)
		}
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		if err := h.Store.Unsubscribe(ctx, in.Endpoint); err != nil {
			return nil, err
		}
		return map[string]bool{"subscribed": false}, nil
	})
}
