// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds FieldOps configuration. Values are loaded in LoadConfig
// from config files, FIELDOPS_* environment variables and flags; WAFFLE's
// CoreConfig covers ports, TLS, logging and CORS.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions and CSRF
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration
	CSRFKey       string

	// Reporting window. TimeZone is an IANA name; WindowStart and
	// WindowEnd are "HH:MM" local times.
	TimeZone    string
	WindowStart string
	WindowEnd   string

	// Attendance reconciliation
	PollInterval   time.Duration // client status polling
	FetchBatchSize int64         // page size of the attendance cursor

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth (disabled when the client ID is blank)
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string // used for the OAuth callback URL

	// Promoted or created on startup
	SuperAdminEmail string

	// Background jobs
	NotifyInterval time.Duration // push dispatch cadence
	ErrorRetention time.Duration // resolved error logs older than this are purged
	WatchInterval  time.Duration // reporting window poll
}

// Location returns the configured time zone. ValidateConfig has already
// rejected unknown names, so the UTC fallback only applies to zero configs.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil || c.TimeZone == "" {
		return time.UTC
	}
	return loc
}
