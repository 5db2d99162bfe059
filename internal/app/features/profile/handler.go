// internal/app/features/profile/handler.go
package profile

import (
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	loginstore "github.com/dalemusser/fieldops/internal/app/store/logins"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own account page.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Loc      *time.Location

	Users  *userstore.Store
	Logins *loginstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Loc:      loc,
		Users:    userstore.New(db),
		Logins:   loginstore.New(db),
	}
}
