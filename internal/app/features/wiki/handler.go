// internal/app/features/wiki/handler.go
package wiki

import (
	"regexp"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	wikistore "github.com/dalemusser/fieldops/internal/app/store/wiki"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the help pages: everyone signed in reads them, superadmins
// write them.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Pages    *wikistore.Store
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Pages:    wikistore.New(db),
	}
}

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// validSlug reports whether s can name a page.
func validSlug(s string) bool { return slugRe.MatchString(s) }
