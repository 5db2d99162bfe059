package notificationstore_test

import (
	"testing"
	"time"

	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_NotificationFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	n, err := s.Create(ctx, []primitive.ObjectID{u1, u2}, "חלון נוכחות נפתח", "אפשר לרשום נוכחות", "/attendance")
	if err != nil || n != 2 {
		t.Fatalf("Create = %d, %v", n, err)
	}

	unread, _ := s.UnreadCount(ctx, u1)
	if unread != 1 {
		t.Errorf("UnreadCount = %d, want 1", unread)
	}

	list, err := s.ListForUser(ctx, u1, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListForUser = %v, %v", list, err)
	}
	// Another user cannot mark it.
	_ = s.MarkRead(ctx, u2, list[0].ID)
	if unread, _ := s.UnreadCount(ctx, u1); unread != 1 {
		t.Error("MarkRead by non-owner changed state")
	}
	if err := s.MarkRead(ctx, u1, list[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if unread, _ := s.UnreadCount(ctx, u1); unread != 0 {
		t.Errorf("UnreadCount after MarkRead = %d", unread)
	}

	pending, _ := s.Pending(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("Pending = %d, want 2", len(pending))
	}
	if err := s.MarkPushed(ctx, pending[0].ID, time.Now()); err != nil {
		t.Fatalf("MarkPushed: %v", err)
	}
	pending, _ = s.Pending(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("Pending after push = %d, want 1", len(pending))
	}

	changed, _ := s.MarkAllRead(ctx, u2)
	if changed != 1 {
		t.Errorf("MarkAllRead = %d, want 1", changed)
	}
}

func TestStore_Subscriptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	u := primitive.NewObjectID()
	sub := models.PushSubscription{UserID: u, Endpoint: "https://push.example/abc", P256dh: "k", Auth: "a"}
	if err := s.Subscribe(ctx, sub); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	sub.Auth = "b"
	if err := s.Subscribe(ctx, sub); err != nil {
		t.Fatalf("re-Subscribe: %v", err)
	}
	subs, _ := s.Subscriptions(ctx, u)
	if len(subs) != 1 || subs[0].Auth != "b" {
		t.Errorf("Subscriptions = %+v", subs)
	}
	if err := s.Unsubscribe(ctx, sub.Endpoint); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	subs, _ = s.Subscriptions(ctx, u)
	if len(subs) != 0 {
		t.Errorf("after Unsubscribe = %+v", subs)
	}
}
