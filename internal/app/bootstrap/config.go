// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// minProdSecretLen is the shortest jwt_secret accepted when env is prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for radhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: RADHUB_MONGO_URI, RADHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "radhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Access tokens
	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for access tokens (required)"},
	{Name: "jwt_expiry", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 90m)"},
	{Name: "jwt_issuer", Default: "radhub", Desc: "Issuer claim written into access tokens"},
	{Name: "auth_cookie_name", Default: "auth_token", Desc: "Name of the cookie carrying the access token"},
	{Name: "cookie_domain", Default: "", Desc: "Auth cookie domain (blank means current host)"},

	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated origins allowed for cross-site API calls"},
	{Name: "ingest_api_key", Default: "", Desc: "Shared key for study ingest (blank disables ingest)"},
	{Name: "bcrypt_cost", Default: passwords.DefaultCost, Desc: "bcrypt cost for stored passwords"},
	{Name: "dev_errors", Default: false, Desc: "Include raw error detail in API error responses"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_workflow", Default: "all", Desc: "Study workflow event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login throttling
	{Name: "login_ip_limit", Default: 20, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Password for a newly created superadmin (replaces the stored one on promote)"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and aggregations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for bulk writes and transactions"},

	{Name: "login_flag_sweep_interval", Default: "1h", Desc: "How often stale logged-in flags are cleared (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// RADHUB_* environment variables and flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RADHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:      appValues.String("jwt_secret"),
		JWTExpiry:      appValues.Duration("jwt_expiry", 24*time.Hour),
		JWTIssuer:      appValues.String("jwt_issuer"),
		AuthCookieName: appValues.String("auth_cookie_name"),
		CookieDomain:   appValues.String("cookie_domain"),

		CORSAllowedOrigins: appValues.String("cors_allowed_origins"),
		IngestAPIKey:       appValues.String("ingest_api_key"),
		BcryptCost:         appValues.Int("bcrypt_cost"),
		DevErrors:          appValues.Bool("dev_errors"),

		// Audit logging
		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogWorkflow: appValues.String("audit_log_workflow"),

		LoginIPLimit:    appValues.Int("login_ip_limit"),
		LoginEmailLimit: appValues.Int("login_email_limit"),

		// SuperAdmin
		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		LoginFlagSweepInterval: appValues.Duration("login_flag_sweep_interval", time.Hour),
	}

	if appCfg.AuthCookieName == "" {
		appCfg.AuthCookieName = "auth_token"
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A missing token secret aborts startup: radhub never signs tokens with a
// built-in fallback.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.JWTSecret) < minProdSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes in prod", minProdSecretLen)
	}
	if appCfg.JWTExpiry <= 0 {
		return fmt.Errorf("jwt_expiry must be positive, got %s", appCfg.JWTExpiry)
	}

	if appCfg.BcryptCost != 0 && (appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if appCfg.SuperAdminPassword != "" && appCfg.SuperAdminEmail == "" {
		logger.Warn("superadmin_password is set without superadmin_email; it will be ignored")
	}
	if appCfg.IngestAPIKey == "" {
		logger.Warn("ingest_api_key is empty; study ingest endpoints will refuse requests")
	}

	return nil
}
