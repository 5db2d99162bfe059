// internal/app/features/notifications/handler.go
package notifications

import (
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the notification inbox and the push subscription endpoints.
type Handler struct {
	DB      *mongo.Database
	Store   *notificationstore.Store
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Actions *actions.Runner
	Loc     *time.Location
}

// NewHandler constructs a notifications Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	var rep actions.Reporter
	if errLog != nil {
		rep = errLog
	}
	return &Handler{
		DB:      db,
		Store:   notificationstore.New(db),
		Log:     logger,
		ErrLog:  errLog,
		Actions: actions.NewRunner(logger, rep),
		Loc:     loc,
	}
}
