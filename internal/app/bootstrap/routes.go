// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	auditlogfeature "github.com/dalemusser/radhub/internal/app/features/auditlog"
	"github.com/dalemusser/radhub/internal/app/features/authapi"
	errorsfeature "github.com/dalemusser/radhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/radhub/internal/app/features/health"
	ingestfeature "github.com/dalemusser/radhub/internal/app/features/ingest"
	labsfeature "github.com/dalemusser/radhub/internal/app/features/labs"
	studiesfeature "github.com/dalemusser/radhub/internal/app/features/studies"
	superadminfeature "github.com/dalemusser/radhub/internal/app/features/superadmin"
	systemusersfeature "github.com/dalemusser/radhub/internal/app/features/systemusers"
	templatesfeature "github.com/dalemusser/radhub/internal/app/features/templates"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/ratelimit"
	"github.com/dalemusser/radhub/internal/app/system/signin"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Everything under /api speaks JSON; /health is
// for load balancers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	secure := coreCfg.Env == "prod"

	codec, err := tokens.NewCodec(appCfg.JWTSecret, appCfg.JWTIssuer)
	if err != nil {
		logger.Error("token codec init failed", zap.Error(err))
		return nil, err
	}
	tenants := tenant.NewResolver(organizationstore.New(db))
	guard := auth.NewGuard(codec, userstore.New(db), tenants, appCfg.AuthCookieName, logger)
	issuer := signin.New(db, codec, tenants, appCfg.JWTExpiry, signin.WithBcryptCost(appCfg.BcryptCost))

	limiter := ratelimit.NewLoginLimiter(appCfg.LoginIPLimit, appCfg.LoginEmailLimit)
	if deps.Background != nil {
		deps.Background.setLimiter(limiter)
	}

	errLog := errorsfeature.NewErrorLogger(logger, appCfg.DevErrors)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Admin:    appCfg.AuditLogAdmin,
		Workflow: appCfg.AuditLogWorkflow,
	})

	r := chi.NewRouter()
	if origins := splitOrigins(appCfg.CORSAllowedOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ingestfeature.APIKeyHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorsfeature.RenderNotFound(w, r, "Route not found")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, coreCfg.Env != "prod", logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		authHandler := authapi.NewHandler(db, issuer, limiter, auditLog, errLog, authapi.CookieConfig{
			Name:   appCfg.AuthCookieName,
			Domain: appCfg.CookieDomain,
			Secure: secure,
			MaxAge: appCfg.JWTExpiry,
		}, logger)
		api.Mount("/auth", authapi.Routes(authHandler, guard))

		// Platform administration
		superHandler := superadminfeature.NewHandler(db, auditLog, errLog, appCfg.BcryptCost, logger)
		api.Mount("/superadmin", superadminfeature.Routes(superHandler, guard))

		// Organization administration
		usersHandler := systemusersfeature.NewHandler(db, auditLog, errLog, appCfg.BcryptCost, logger)
		api.Mount("/admin/users", systemusersfeature.Routes(usersHandler, guard))

		labsHandler := labsfeature.NewHandler(db, auditLog, errLog, logger)
		api.Mount("/admin/labs", labsfeature.Routes(labsHandler, guard))

		auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
		api.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, guard))

		// Study workflow
		studiesHandler := studiesfeature.NewHandler(db, auditLog, errLog, logger)
		api.Mount("/studies", studiesfeature.Routes(studiesHandler, guard))

		templatesHandler := templatesfeature.NewHandler(db, auditLog, errLog, logger)
		api.Mount("/templates", templatesfeature.Routes(templatesHandler, guard))

		// Machine-to-machine ingest, API key instead of a user token
		ingestHandler := ingestfeature.NewHandler(db, appCfg.IngestAPIKey, tenants, auditLog, errLog, logger)
		api.Mount("/ingest", ingestfeature.Routes(ingestHandler))
	})

	return r, nil
}

// splitOrigins parses the comma-separated cors_allowed_origins value.
func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
