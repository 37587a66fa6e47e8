// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, CORS). AppConfig is everything specific to CrewVoice:
// database connections, session and token secrets, file storage,
// the Redis relay, and the superadmin seed.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: crewvoice-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer token configuration for API clients
	JWTSecret string        // HMAC signing secret, 32+ chars
	JWTTTL    time.Duration // Access token lifetime

	// Attachment storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads/attachments")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files/attachments")
	StorageS3Region  string // AWS region (only used if StorageType is "s3")
	StorageS3Bucket  string // S3 bucket name
	StorageS3Prefix  string // Key prefix (e.g., "attachments/")

	// Redis relay for cross-instance live notifications. Blank addr
	// disables the relay; a single instance still gets local delivery.
	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	// Google OAuth configuration for accounts with auth_method "google"
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g., "https://crewvoice.example.com")
	BaseURL string

	// SuperAdmin bootstrap
	SuperAdminEmail string // Email of the superadmin user (promotes/creates on startup)
	SuperAdminName  string // Display name used when the seed creates the account

	// Buffer size for the advisory counter queue
	StatQueueSize int

	// MaxAttachmentBytes overrides the 1 MiB attachment ceiling when
	// positive; zero keeps the default.
	MaxAttachmentBytes int64
}
