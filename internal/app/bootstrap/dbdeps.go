// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/fieldops/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldops/internal/app/system/tasks"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// bg is shared by every copy of DBDeps WAFFLE passes to the hooks,
	// so Shutdown sees what Startup and BuildHandler started.
	bg *background
}

type background struct {
	scheduler *tasks.Scheduler
	watcher   *timewindow.Watcher
	limiter   *ratelimit.LoginLimiter
}
