// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of audit entries.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls sign-in and sign-out entries.
	Auth string
	// Admin controls changes to areas, cities, neighborhoods, workers,
	// users, tasks and wiki pages.
	Admin string
}

// Logger writes audit entries to the audit store and to zap.
//
// Attendance entries are always stored regardless of Config: deleted
// attendance history is rebuilt from them.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ClientIP extracts the client IP from the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// RemoteIP reduces ClientIP to one bare address: the first forwarded hop,
// without a port.
func RemoteIP(r *http.Request) string {
	ip, _, _ := strings.Cut(ClientIP(r), ",")
	ip = strings.TrimSpace(ip)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

func (l *Logger) setting(entity string) string {
	switch entity {
	case models.EntityAttendance:
		switch l.config.Admin {
		case Off, DB:
			return DB
		default:
			return All
		}
	case models.EntitySession:
		return orAll(l.config.Auth)
	default:
		return orAll(l.config.Admin)
	}
}

func orAll(s string) string {
	if s == "" {
		return All
	}
	return s
}

func (l *Logger) logToZap(e models.AuditEntry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("entity", e.Entity),
		zap.String("action", e.Action),
		zap.String("user_email", e.UserEmail),
		zap.String("ip", e.IP),
	}
	if !e.EntityID.IsZero() {
		fields = append(fields, zap.String("entity_id", e.EntityID.Hex()))
	}
	if e.CityID != nil {
		fields = append(fields, zap.String("city_id", e.CityID.Hex()))
	}
	if reason := e.After["reason"]; reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	if e.Action == models.AuditLoginFailed {
		l.zapLog.Warn("audit entry", fields...)
		return
	}
	l.zapLog.Info("audit entry", fields...)
}

// Record writes e according to the configuration. The store error is
// returned so callers writing inside a transaction can abort; a nil Logger
// is a no-op.
func (l *Logger) Record(ctx context.Context, r *http.Request, e models.AuditEntry) error {
	if l == nil {
		return nil
	}
	if e.IP == "" {
		e.IP = ClientIP(r)
	}
	setting := l.setting(e.Entity)
	if setting == Off {
		return nil
	}
	if setting == All || setting == Log {
		l.logToZap(e)
	}
	if setting == All || setting == DB {
		if _, err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("entity", e.Entity),
				zap.String("action", e.Action))
			return err
		}
	}
	return nil
}

// --- Authentication entries ---

// LoginSuccess records a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, method string) {
	_ = l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntitySession,
		EntityID:  userID,
		Action:    models.AuditLogin,
		After:     map[string]string{"method": method},
		UserEmail: email,
	})
}

// LoginFailed records a rejected sign-in attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	_ = l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntitySession,
		Action:    models.AuditLoginFailed,
		After:     map[string]string{"reason": reason},
		UserEmail: email,
	})
}

// Logout records a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex, email string) {
	id, _ := primitive.ObjectIDFromHex(userIDHex)
	_ = l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntitySession,
		EntityID:  id,
		Action:    models.AuditLogout,
		UserEmail: email,
	})
}

// --- Attendance entries ---

// AttendanceCreated records a check-in.
func (l *Logger) AttendanceCreated(ctx context.Context, r *http.Request, email string, rec models.AttendanceRecord) error {
	city := rec.CityID
	return l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntityAttendance,
		EntityID:  rec.ID,
		Action:    models.AuditCreate,
		After:     rec.Snapshot(),
		UserEmail: email,
		CityID:    &city,
	})
}

// AttendanceUpdated records an edit with both snapshots and the reason.
func (l *Logger) AttendanceUpdated(ctx context.Context, r *http.Request, email string, before, after models.AttendanceRecord, reason string) error {
	city := before.CityID
	a := after.Snapshot()
	a["reason"] = reason
	return l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntityAttendance,
		EntityID:  before.ID,
		Action:    models.AuditUpdate,
		Before:    before.Snapshot(),
		After:     a,
		UserEmail: email,
		CityID:    &city,
	})
}

// AttendanceDeleted records a deletion. Before carries the full record so
// history can show it after the live document is gone.
func (l *Logger) AttendanceDeleted(ctx context.Context, r *http.Request, email string, rec models.AttendanceRecord, reason string) error {
	city := rec.CityID
	return l.Record(ctx, r, models.AuditEntry{
		Entity:    models.EntityAttendance,
		EntityID:  rec.ID,
		Action:    models.AuditDelete,
		Before:    rec.Snapshot(),
		After:     map[string]string{"reason": reason},
		UserEmail: email,
		CityID:    &city,
	})
}

// --- Organization entries ---

// Changed records a create, update or delete of an organization entity.
// before is nil on create and after is nil on delete.
func (l *Logger) Changed(ctx context.Context, r *http.Request, email, entity, action string, id primitive.ObjectID, cityID *primitive.ObjectID, before, after map[string]string) {
	_ = l.Record(ctx, r, models.AuditEntry{
		Entity:    entity,
		EntityID:  id,
		Action:    action,
		Before:    before,
		After:     after,
		UserEmail: email,
		CityID:    cityID,
	})
}
