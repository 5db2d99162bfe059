// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	loginstore "github.com/dalemusser/fieldops/internal/app/store/logins"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the staff account pages.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Loc      *time.Location

	Users  *userstore.Store
	Logins *loginstore.Store
	Cities *citystore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Loc:      loc,
		Users:    userstore.New(db),
		Logins:   loginstore.New(db),
		Cities:   citystore.New(db),
	}
}

func (h *Handler) scope(ctx context.Context, r *http.Request) (orgutil.Scope, error) {
	u, _ := auth.CurrentUser(r)
	return orgutil.Resolve(ctx, h.DB, u)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, orgutil.ErrNoScope) || errors.Is(err, errNotManaged) {
		uierrors.RenderForbidden(w, r, "אין לך הרשאה לנהל משתמש זה", "/users")
		return
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "/users")
		return
	}
	h.ErrLog.LogServerError(w, r, msg, err, "אירעה שגיאה בטעינת המשתמשים", "/users")
}
