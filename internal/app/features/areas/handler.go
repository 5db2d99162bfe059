// internal/app/features/areas/handler.go
package areas

import (
	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for areas.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Areas  *areastore.Store
	Cities *citystore.Store
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Areas:    areastore.New(db),
		Cities:   citystore.New(db),
		Users:    userstore.New(db),
	}
}
