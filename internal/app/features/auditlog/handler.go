// internal/app/features/auditlog/handler.go
package auditlog

import (
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Store  *audit.Store

	// Loc is the zone dates are entered and shown in.
	Loc *time.Location
}

// NewHandler constructs the audit log viewer.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Store:  audit.New(db),
		Loc:    loc,
	}
}
