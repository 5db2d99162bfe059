// internal/app/features/workers/handler.go
package workers

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/orgselect"
	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the worker (activist) pages.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Cascade  *orgselect.Handler

	Workers *workerstore.Store
}

func NewHandler(db *mongo.Database, cascade *orgselect.Handler, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Cascade:  cascade,
		Workers:  workerstore.New(db),
	}
}

func (h *Handler) scope(ctx context.Context, r *http.Request) (orgutil.Scope, error) {
	u, _ := auth.CurrentUser(r)
	return orgutil.Resolve(ctx, h.DB, u)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, orgutil.ErrNoScope) || actions.Classify(err).Code == actions.CodeForbidden {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לצפות בפעילים", "/dashboard")
		return
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "/workers")
		return
	}
	h.ErrLog.LogServerError(w, r, msg, err, "אירעה שגיאה בטעינת הפעילים", "/workers")
}
