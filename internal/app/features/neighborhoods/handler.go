// internal/app/features/neighborhoods/handler.go
package neighborhoods

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/orgselect"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the neighborhood pages. City selection goes through the
// shared cascade handler.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Cascade  *orgselect.Handler

	Neighborhoods *neighborhoodstore.Store
	Cities        *citystore.Store
	Users         *userstore.Store
	Assign        *supervisorassign.Store
}

func NewHandler(db *mongo.Database, cascade *orgselect.Handler, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Cascade:       cascade,
		Neighborhoods: neighborhoodstore.New(db),
		Cities:        citystore.New(db),
		Users:         userstore.New(db),
		Assign:        supervisorassign.New(db),
	}
}

func (h *Handler) scope(ctx context.Context, r *http.Request) (orgutil.Scope, error) {
	u, _ := auth.CurrentUser(r)
	return orgutil.Resolve(ctx, h.DB, u)
}

// fail renders an error from the cascade or scope lookup as a page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, orgutil.ErrNoScope) {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לצפות בשכונות", "/dashboard")
		return
	}
	switch actions.Classify(err).Code {
	case actions.CodeForbidden:
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לפעולה זו", "/neighborhoods")
	case actions.CodeNotFound:
		uierrors.RenderNotFound(w, r, "/neighborhoods")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "אירעה שגיאה בטעינת הנתונים", "/neighborhoods")
	}
}
