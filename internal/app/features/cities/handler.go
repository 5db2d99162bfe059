// internal/app/features/cities/handler.go
package cities

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Areas  *areastore.Store
	Cities *citystore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Areas:    areastore.New(db),
		Cities:   citystore.New(db),
	}
}

func (h *Handler) scope(ctx context.Context, r *http.Request) (orgutil.Scope, error) {
	u, _ := auth.CurrentUser(r)
	return orgutil.Resolve(ctx, h.DB, u)
}
