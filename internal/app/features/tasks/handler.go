// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"
	"sort"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	notificationstore "github.com/dalemusser/fieldops/internal/app/store/notifications"
	taskstore "github.com/dalemusser/fieldops/internal/app/store/tasks"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Loc      *time.Location

	Tasks         *taskstore.Store
	Users         *userstore.Store
	Notifications *notificationstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Loc:           loc,
		Tasks:         taskstore.New(db),
		Users:         userstore.New(db),
		Notifications: notificationstore.New(db),
	}
}

// assignees lists the users the caller may hand a task to: supervisors in
// scope, plus city coordinators for area managers, plus area managers for
// superadmins.
func (h *Handler) assignees(ctx context.Context, r *http.Request) ([]models.User, error) {
	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if err != nil {
		return nil, err
	}
	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		return nil, err
	}
	out := append([]models.User(nil), hier.Supervisors...)

	if authz.CanManageOrg(r) {
		coords, err := h.Users.ListByRole(ctx, models.RoleCityCoordinator, nil)
		if err != nil {
			return nil, err
		}
		for _, c := range coords {
			if c.CityID != nil && sc.HasCity(*c.CityID) {
				out = append(out, c)
			}
		}
	}
	if authz.IsSuperAdmin(r) {
		mgrs, err := h.Users.ListByRole(ctx, models.RoleAreaManager, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, mgrs...)
	}

	_, _, self, _ := authz.UserCtx(r)
	seen := map[primitive.ObjectID]bool{self: true}
	uniq := out[:0]
	for _, a := range out {
		if seen[a.ID] || a.Status == models.StatusDisabled {
			continue
		}
		seen[a.ID] = true
		uniq = append(uniq, a)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].FullName < uniq[j].FullName })
	return uniq, nil
}
