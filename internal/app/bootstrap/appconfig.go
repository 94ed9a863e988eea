// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (RADHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, log level and request limits; everything below is
// radhub's own.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Access tokens
	JWTSecret      string
	JWTExpiry      time.Duration
	JWTIssuer      string
	AuthCookieName string
	CookieDomain   string

	// Comma-separated list of browser origins allowed to call the API.
	CORSAllowedOrigins string

	// Shared secret for the study ingest endpoints. Empty disables ingest.
	IngestAPIKey string

	BcryptCost int
	DevErrors  bool

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth     string
	AuditLogAdmin    string
	AuditLogWorkflow string

	// Login throttling, attempts per window
	LoginIPLimit    int
	LoginEmailLimit int

	// SuperAdmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string

	// Per-operation database timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	LoginFlagSweepInterval time.Duration
}
