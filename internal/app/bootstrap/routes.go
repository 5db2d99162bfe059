// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"net/url"

	areasfeature "github.com/dalemusser/fieldops/internal/app/features/areas"
	attendancefeature "github.com/dalemusser/fieldops/internal/app/features/attendance"
	auditlogfeature "github.com/dalemusser/fieldops/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/fieldops/internal/app/features/authgoogle"
	citiesfeature "github.com/dalemusser/fieldops/internal/app/features/cities"
	dashboardfeature "github.com/dalemusser/fieldops/internal/app/features/dashboard"
	errorlogsfeature "github.com/dalemusser/fieldops/internal/app/features/errorlogs"
	errorsfeature "github.com/dalemusser/fieldops/internal/app/features/errors"
	healthfeature "github.com/dalemusser/fieldops/internal/app/features/health"
	loginfeature "github.com/dalemusser/fieldops/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fieldops/internal/app/features/logout"
	neighborhoodsfeature "github.com/dalemusser/fieldops/internal/app/features/neighborhoods"
	notificationsfeature "github.com/dalemusser/fieldops/internal/app/features/notifications"
	orgselectfeature "github.com/dalemusser/fieldops/internal/app/features/orgselect"
	orgtreefeature "github.com/dalemusser/fieldops/internal/app/features/orgtree"
	profilefeature "github.com/dalemusser/fieldops/internal/app/features/profile"
	_ "github.com/dalemusser/fieldops/internal/app/features/shared/views"
	tasksfeature "github.com/dalemusser/fieldops/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/fieldops/internal/app/features/users"
	wikifeature "github.com/dalemusser/fieldops/internal/app/features/wiki"
	workersfeature "github.com/dalemusser/fieldops/internal/app/features/workers"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler builds the router: session and CSRF middleware, then every
// feature mounted under its prefix.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	loc := appCfg.Location()

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on each request: role changes and disabled accounts
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	window, err := timewindow.New(appCfg.WindowStart, appCfg.WindowEnd, loc)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger, errorlogstore.New(db))
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	limiter := ratelimit.NewLoginLimiter()
	if deps.bg != nil {
		deps.bg.limiter = limiter
	}

	r := chi.NewRouter()

	r.Use(csrfMiddleware(appCfg, secure, logger)...)
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, window, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/static/*", fileserver.Handler("/static", "public"))
	// The push service worker must be served from the root to control it.
	r.Get("/sw.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, "public/js/sw.js")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentUser(r); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	// Authentication
	googleEnabled := appCfg.GoogleClientID != ""
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, limiter, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler, sessionMgr))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	if googleEnabled {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog, auditLog,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	dashboardHandler := dashboardfeature.NewHandler(db, errLog, window, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Cascade: one handler serves the HTMX fragments, the JSON endpoints
	// and every form that embeds the selects.
	cascadeHandler := orgselectfeature.NewHandler(db, deps.MongoClient, errLog, auditLog, logger)
	r.Mount("/cascade", orgselectfeature.Routes(cascadeHandler, sessionMgr))
	r.Mount("/api/neighborhoods", orgselectfeature.NeighborhoodAPIRoutes(cascadeHandler, sessionMgr))
	r.Mount("/api/supervisors", orgselectfeature.SupervisorAPIRoutes(cascadeHandler, sessionMgr))

	// Attendance
	attendanceHandler := attendancefeature.NewHandler(db, deps.MongoClient, errLog, auditLog,
		window, appCfg.PollInterval, appCfg.FetchBatchSize, logger)
	r.Mount("/attendance", attendancefeature.Routes(attendanceHandler, sessionMgr))
	r.Mount("/api/attendance", attendancefeature.APIRoutes(attendanceHandler, sessionMgr))

	// Organization management
	areasHandler := areasfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/areas", areasfeature.Routes(areasHandler, sessionMgr))

	citiesHandler := citiesfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/cities", citiesfeature.Routes(citiesHandler, sessionMgr))

	neighborhoodsHandler := neighborhoodsfeature.NewHandler(db, cascadeHandler, errLog, auditLog, logger)
	r.Mount("/neighborhoods", neighborhoodsfeature.Routes(neighborhoodsHandler, sessionMgr))

	workersHandler := workersfeature.NewHandler(db, cascadeHandler, errLog, auditLog, logger)
	r.Mount("/workers", workersfeature.Routes(workersHandler, sessionMgr))

	orgTreeHandler := orgtreefeature.NewHandler(db, errLog, logger)
	r.Mount("/org", orgtreefeature.Routes(orgTreeHandler, sessionMgr))

	// Oversight
	auditHandler := auditlogfeature.NewHandler(db, errLog, loc, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	errorLogsHandler := errorlogsfeature.NewHandler(db, errLog, loc, logger)
	r.Mount("/errors", errorlogsfeature.Routes(errorLogsHandler, sessionMgr))

	// Collaboration
	notificationsHandler := notificationsfeature.NewHandler(db, errLog, loc, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	tasksHandler := tasksfeature.NewHandler(db, errLog, auditLog, loc, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	wikiHandler := wikifeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/wiki", wikifeature.Routes(wikiHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(db, errLog, auditLog, loc, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, errLog, auditLog, loc, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	return r, nil
}

// csrfMiddleware returns gorilla/csrf protection. Outside production,
// requests are marked plaintext so the Referer check accepts plain HTTP.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) []func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			logger.Warn("csrf check failed", zap.String("path", r.URL.Path), zap.String("reason", reason))
			http.Error(w, "בקשה לא תקינה. רעננו את הדף ונסו שוב.", http.StatusForbidden)
		})),
	}
	if u, err := url.Parse(appCfg.BaseURL); err == nil && u.Host != "" {
		opts = append(opts, csrf.TrustedOrigins([]string{u.Host}))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	if secure {
		return []func(http.Handler) http.Handler{protect}
	}
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
	return []func(http.Handler) http.Handler{plaintext, protect}
}
