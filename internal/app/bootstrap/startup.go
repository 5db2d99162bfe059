// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/push"
	"github.com/dalemusser/fieldops/internal/app/system/tasks"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Startup starts the background work: the job scheduler (OAuth state
// cleanup, push dispatch, error log purge) and the reporting window
// watcher.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// ValidateConfig already parsed the window.
	window, err := timewindow.New(appCfg.WindowStart, appCfg.WindowEnd, appCfg.Location())
	if err != nil {
		return err
	}

	notes := notificationstore.New(db)
	sched := tasks.NewScheduler(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
		tasks.NotificationDispatchJob(notes, push.LogSender{Log: logger}, logger, appCfg.NotifyInterval),
		tasks.ErrorLogPurgeJob(errorlogstore.New(db), logger, appCfg.ErrorRetention),
	)
	sched.Start()

	watcher := timewindow.NewWatcher(window, appCfg.WatchInterval, logger, windowNotifier(userstore.New(db), notes, logger))
	watcher.Start()

	if deps.bg != nil {
		deps.bg.scheduler = sched
		deps.bg.watcher = watcher
	}
	return nil
}

// windowNotifier tells every active supervisor when the reporting window
// opens or closes.
func windowNotifier(users *userstore.Store, notes *notificationstore.Store, logger *zap.Logger) func(context.Context, timewindow.Transition) {
	return func(ctx context.Context, t timewindow.Transition) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
		defer cancel()

		sups, err := users.ListByRole(ctx, models.RoleActivistCoordinator, nil)
		if err != nil {
			logger.Error("window notification: list supervisors failed", zap.Error(err))
			return
		}
		ids := make([]primitive.ObjectID, 0, len(sups))
		for _, u := range sups {
			ids = append(ids, u.ID)
		}

		title, body := "חלון הדיווח נסגר", "לא ניתן לעדכן נוכחות עד פתיחת החלון הבא."
		if t.Open {
			title, body = "חלון הדיווח נפתח", "ניתן לעדכן את נוכחות הפעילים להיום."
		}
		n, err := notes.Create(ctx, ids, title, body, "/attendance")
		if err != nil {
			logger.Error("window notification failed", zap.Bool("open", t.Open), zap.Error(err))
			return
		}
		logger.Info("window notification sent", zap.Bool("open", t.Open), zap.Int("recipients", n))
	}
}
