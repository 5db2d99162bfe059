package notifications_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/notifications"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *notifications.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return notifications.NewHandler(db, uierrors.NewErrorLogger(logger, nil), nil, logger)
}

func TestMarkRead(t *testing.T) {
	h := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	user := testutil.Supervisor(uid, primitive.NewObjectID())
	if _, err := h.Store.Create(ctx, []primitive.ObjectID{uid}, "משימה חדשה", "", "/tasks"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Store.Create(ctx, []primitive.ObjectID{uid}, "חלון נוכחות נפתח", "", "/attendance"); err != nil {
		t.Fatal(err)
	}
	list, err := h.Store.ListForUser(ctx, uid, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	target := list[0]

	t.Run("other users cannot mark it", func(t *testing.T) {
		stranger := testutil.Supervisor(primitive.NewObjectID(), primitive.NewObjectID())
		req := testutil.WithUser(testutil.NewFormRequest("/notifications/x/read", url.Values{}), stranger)
		req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
		h.MarkRead(httptest.NewRecorder(), req)
		if n, _ := h.Store.UnreadCount(ctx, uid); n != 2 {
			t.Errorf("unread = %d, want 2", n)
		}
	})

	t.Run("owner follows the link", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewFormRequest("/notifications/x/read", url.Values{"return": {target.URL}}), user)
		req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
		rec := httptest.NewRecorder()
		h.MarkRead(rec, req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != target.URL {
			t.Fatalf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
		}
		if n, _ := h.Store.UnreadCount(ctx, uid); n != 1 {
			t.Errorf("unread = %d, want 1", n)
		}
	})

	t.Run("external return is ignored", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewFormRequest("/notifications/x/read", url.Values{"return": {"https://evil.example/"}}), user)
		req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
		rec := httptest.NewRecorder()
		h.MarkRead(rec, req)
		if loc := rec.Header().Get("Location"); loc != "/notifications" {
			t.Errorf("Location = %q, want /notifications", loc)
		}
	})

	t.Run("mark all", func(t *testing.T) {
		req := testutil.WithUser(testutil.NewFormRequest("/notifications/read-all", url.Values{}), user)
		rec := httptest.NewRecorder()
		h.MarkAllRead(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d", rec.Code)
		}
		if n, _ := h.Store.UnreadCount(ctx, uid); n != 0 {
			t.Errorf("unread = %d, want 0", n)
		}
	})
}

func TestPushSubscription(t *testing.T) {
	h := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	uid := primitive.NewObjectID()
	user := testutil.Supervisor(uid, primitive.NewObjectID())

	tests := []struct {
		name   string
		body   string
		status int
		subs   int
	}{
		{"missing keys", `{"endpoint":"https://push.example/abc"}`, http.StatusUnprocessableEntity, 0},
		{"not a url", `{"endpoint":"abc","keys":{"p256dh":"k","auth":"a"}}`, http.StatusUnprocessableEntity, 0},
		{"valid", `{"endpoint":"https://push.example/abc","keys":{"p256dh":"k","auth":"a"}}`, http.StatusOK, 1},
		{"same endpoint again", `{"endpoint":"https://push.example/abc","keys":{"p256dh":"k2","auth":"a2"}}`, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest("/notifications/push/subscribe", tt.body), user)
			rec := httptest.NewRecorder()
			h.Subscribe(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			subs, err := h.Store.Subscriptions(ctx, uid)
			if err != nil {
				t.Fatal(err)
			}
			if len(subs) != tt.subs {
				t.Errorf("subscriptions = %d, want %d", len(subs), tt.subs)
			}
		})
	}

	req := testutil.WithUser(testutil.NewJSONRequest("/notifications/push/unsubscribe", `{"endpoint":"https://push.example/abc"}`), user)
	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, req)
	var res struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil || !res.Success {
		t.Fatalf("unsubscribe = %s", rec.Body.String())
	}
	if subs, _ := h.Store.Subscriptions(ctx, uid); len(subs) != 0 {
		t.Errorf("subscriptions = %d after unsubscribe", len(subs))
	}
}
