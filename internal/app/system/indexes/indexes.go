// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	attendancestore "github.com/dalemusser/fieldops/internal/app/store/attendance"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	loginstore "github.com/dalemusser/fieldops/internal/app/store/logins"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	taskstore "github.com/dalemusser/fieldops/internal/app/store/tasks"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	wikistore "github.com/dalemusser/fieldops/internal/app/store/wiki"
	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

type target struct {
	name string
	e    ensurer
}

func targets(db *mongo.Database) []target {
	return []target{
		{"users", userstore.New(db)},
		{"areas", areastore.New(db)},
		{"cities", citystore.New(db)},
		{"neighborhoods", neighborhoodstore.New(db)},
		{"supervisor_assignments", supervisorassign.New(db)},
		{"workers", workerstore.New(db)},
		{"attendance", attendancestore.New(db)},
		{"audit_log", audit.New(db)},
		{"error_logs", errorlogstore.New(db)},
		{"notifications", notificationstore.New(db)},
		{"tasks", taskstore.New(db)},
		{"wiki_pages", wikistore.New(db)},
		{"oauth_states", oauthstate.New(db)},
		{"login_records", loginstore.New(db)},
	}
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
An options conflict (same keys under another name) is logged and skipped;
the existing index still serves the queries.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, t := range targets(db) {
		start := time.Now()
		err := t.e.EnsureIndexes(ctx)
		switch {
		case err == nil:
			logger.Debug("indexes ensured", zap.String("collection", t.name), zap.Duration("took", time.Since(start)))
		case isOptionsConflictErr(err):
			logger.Warn("index options conflict, keeping existing index", zap.String("collection", t.name), zap.Error(err))
		default:
			problems = append(problems, t.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 85 || ce.Code == 86) {
		return true
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict") || strings.Contains(err.Error(), "IndexKeySpecsConflict")
}
