// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files (mongo_uri), environment
// variables (FIELDOPS_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fieldops", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "fieldops-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-change-me-0123456789ABCDEF", Desc: "CSRF token key (32+ bytes)"},

	{Name: "time_zone", Default: "Asia/Jerusalem", Desc: "IANA time zone of the reporting window"},
	{Name: "window_start", Default: "06:00", Desc: "Reporting window opens (HH:MM local)"},
	{Name: "window_end", Default: "22:00", Desc: "Reporting window closes (HH:MM local, exclusive; 24:00 for midnight)"},
	{Name: "window_watch_interval", Default: "1m", Desc: "How often the window watcher checks for open/close"},

	{Name: "poll_interval", Default: "60s", Desc: "Attendance status polling interval for clients"},
	{Name: "fetch_batch_size", Default: 1000, Desc: "Attendance records fetched per cursor batch"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (blank disables Google sign-in)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL, used for the OAuth callback"},

	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},

	{Name: "notify_interval", Default: "30s", Desc: "Push notification dispatch interval"},
	{Name: "error_retention", Default: "720h", Desc: "Resolved error logs older than this are purged"},
}

// LoadConfig loads WAFFLE core config and the FieldOps app config.
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FIELDOPS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		TimeZone:      appValues.String("time_zone"),
		WindowStart:   appValues.String("window_start"),
		WindowEnd:     appValues.String("window_end"),
		WatchInterval: appValues.Duration("window_watch_interval", time.Minute),

		PollInterval:   appValues.Duration("poll_interval", 60*time.Second),
		FetchBatchSize: int64(appValues.Int("fetch_batch_size")),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            appValues.String("base_url"),

		SuperAdminEmail: appValues.String("superadmin_email"),

		NotifyInterval: appValues.Duration("notify_interval", 30*time.Second),
		ErrorRetention: appValues.Duration("error_retention", 30*24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configs that would only fail later: a malformed
// MongoDB URI, an unknown time zone, an unparseable reporting window or a
// non-positive batch size.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", appCfg.TimeZone, err)
	}
	if _, err := timewindow.New(appCfg.WindowStart, appCfg.WindowEnd, loc); err != nil {
		return fmt.Errorf("invalid reporting window: %w", err)
	}

	if appCfg.FetchBatchSize <= 0 {
		return fmt.Errorf("fetch_batch_size must be positive, got %d", appCfg.FetchBatchSize)
	}
	if appCfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}

	if coreCfg.Env == "prod" && len(appCfg.CSRFKey) < 32 {
		return fmt.Errorf("csrf_key must be at least 32 bytes in production")
	}
	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret == "" {
		return fmt.Errorf("google_client_secret is required when google_client_id is set")
	}

	return nil
}
