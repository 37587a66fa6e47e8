// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	accountsfeature "github.com/crewvoice/crewvoice/internal/app/features/accounts"
	authgooglefeature "github.com/crewvoice/crewvoice/internal/app/features/authgoogle"
	companiesfeature "github.com/crewvoice/crewvoice/internal/app/features/companies"
	complaintsfeature "github.com/crewvoice/crewvoice/internal/app/features/complaints"
	dashboardfeature "github.com/crewvoice/crewvoice/internal/app/features/dashboard"
	departmentsfeature "github.com/crewvoice/crewvoice/internal/app/features/departments"
	healthfeature "github.com/crewvoice/crewvoice/internal/app/features/health"
	loginfeature "github.com/crewvoice/crewvoice/internal/app/features/login"
	logoutfeature "github.com/crewvoice/crewvoice/internal/app/features/logout"
	profilefeature "github.com/crewvoice/crewvoice/internal/app/features/profile"
	tokenfeature "github.com/crewvoice/crewvoice/internal/app/features/token"
	companystore "github.com/crewvoice/crewvoice/internal/app/store/companies"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	oauthstatestore "github.com/crewvoice/crewvoice/internal/app/store/oauthstate"
	userstore "github.com/crewvoice/crewvoice/internal/app/store/users"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/metrics"
	"github.com/crewvoice/crewvoice/internal/app/system/notify"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed, so the background workers in
// runtime are already live. The routing surface is JSON throughout:
// auth endpoints, superadmin company management, per-company department
// and account management, and the complaint API with its websocket
// stream.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request, so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	issuer, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	fileStore, err := buildStorage(appCfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.MongoDatabase)
	companies := companystore.New(deps.MongoDatabase)
	departments := departmentstore.New(deps.MongoDatabase)
	complaints := complaintstore.New(deps.MongoDatabase, logger)
	oauthStates := oauthstatestore.New(deps.MongoDatabase)

	notifier := notify.New(runtime.hub, logger)

	r := chi.NewRouter()

	r.Use(metrics.Middleware)

	// Global auth middleware: session cookie first, then bearer token.
	// Either one places the SessionUser in context for auth.CurrentUser.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(sessionMgr.LoadBearerUser(issuer.Verify))

	// Health check endpoint for load balancers and orchestrators.
	var rdb *redis.Client
	if runtime.relay != nil {
		rdb = runtime.relay.Client()
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, rdb, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// Locally stored attachments are served straight off disk; S3-backed
	// deployments serve them from the bucket URL instead.
	if _, ok := fileStore.(*storage.Local); ok {
		prefix := appCfg.StorageLocalURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(appCfg.StorageLocalPath))))
	}

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(users, sessionMgr, oauthStates,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	tokenHandler := tokenfeature.NewHandler(users, issuer, logger)
	r.Mount("/api/token", tokenfeature.Routes(tokenHandler))

	requireAdmin := sessionMgr.RequireRole("admin", "superadmin")
	requireSuperadmin := sessionMgr.RequireRole("superadmin")

	// Everything below requires a signed-in user.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		complaintsHandler := complaintsfeature.NewHandler(
			complaints, departments, fileStore, appCfg.StorageLocalURL,
			runtime.stats, notifier, runtime.hub, logger)
		r.Mount("/complaints", complaintsfeature.Routes(complaintsHandler))

		departmentsHandler := departmentsfeature.NewHandler(departments, logger)
		r.Mount("/departments", departmentsfeature.Routes(departmentsHandler, requireAdmin))

		profileHandler := profilefeature.NewHandler(users, logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler))

		accountsHandler := accountsfeature.NewHandler(users, logger)
		dashboardHandler := dashboardfeature.NewHandler(companies, departments, logger)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Mount("/accounts", accountsfeature.Routes(accountsHandler))
			r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))
		})

		companiesHandler := companiesfeature.NewHandler(companies, logger)
		r.Group(func(r chi.Router) {
			r.Use(requireSuperadmin)
			r.Mount("/companies", companiesfeature.Routes(companiesHandler))
		})
	})

	return r, nil
}

// buildStorage selects the attachment storage backend from config.
func buildStorage(appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		s, err := storage.NewS3(context.Background(), storage.S3Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		l, err := storage.NewLocal(storage.LocalConfig{BasePath: appCfg.StorageLocalPath})
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}
