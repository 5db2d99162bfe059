// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldops/internal/app/system/push"
	"go.uber.org/zap"
)

// DispatchBatch is how many pending notifications one dispatch run handles.
const DispatchBatch = 200

// OAuthStateCleanupJob removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// NotificationDispatchJob pushes pending notifications to every device the
// user registered.
func NotificationDispatchJob(store *notificationstore.Store, sender push.Sender, logger *zap.Logger, interval time.Duration) Job {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return Job{
		Name:     "notification-dispatch",
		Interval: interval,
		Run: func(ctx context.Context) error {
			sent, err := DispatchPending(ctx, store, sender, logger)
			if sent > 0 {
				logger.Debug("dispatched notifications", zap.Int("count", sent))
			}
			return err
		},
	}
}

// DispatchPending sends one batch of pending notifications. A notification
// whose delivery fails with anything but push.ErrGone stays pending and is
// retried on the next run.
func DispatchPending(ctx context.Context, store *notificationstore.Store, sender push.Sender, logger *zap.Logger) (int, error) {
	pending, err := store.Pending(ctx, DispatchBatch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range pending {
		subs, err := store.Subscriptions(ctx, n.UserID)
		if err != nil {
			return sent, err
		}
		ok := true
		for _, sub := range subs {
			err := sender.Send(ctx, sub, push.FromNotification(n))
			switch {
			case err == nil:
			case errors.Is(err, push.ErrGone):
				if err := store.Unsubscribe(ctx, sub.Endpoint); err != nil {
					logger.Warn("failed to remove gone push endpoint", zap.Error(err))
				}
			default:
				ok = false
				logger.Warn("push delivery failed",
					zap.String("notification_id", n.ID.Hex()),
					zap.Error(err))
			}
		}
		if !ok {
			continue
		}
		if err := store.MarkPushed(ctx, n.ID, time.Now()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// ErrorLogPurgeJob deletes resolved error logs older than retention.
func ErrorLogPurgeJob(store *errorlogstore.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "error-log-purge",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			n, err := store.PurgeResolvedBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged resolved error logs", zap.Int64("count", n))
			}
			return nil
		},
	}
}
