// Package config loads the portal's settings from environment variables.
// Every field has a default, so an empty environment yields a working
// development server; Validate rejects inconsistent values at startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Upload   UploadConfig
	Session  SessionConfig
	Review   ReviewConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 so progress streams stay open
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds non-streaming handlers (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// CatalogConfig controls the dataset catalog.
type CatalogConfig struct {
	// PageSize is the number of datasets per browse page (default: 6)
	PageSize int `env:"CATALOG_PAGE_SIZE" default:"6"`

	// SeedFile replaces the embedded sample catalog when set
	SeedFile string `env:"CATALOG_SEED_FILE"`
}

// UploadConfig holds file acceptance and simulated transfer settings.
type UploadConfig struct {
	// MaxFileSize is the per-file limit in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// Extensions lists accepted file extensions, lower case with dot
	Extensions []string `env:"UPLOAD_EXTENSIONS" default:".png,.tiff,.tif,.csv,.dcm"`

	// ProgressStep is percentage points added per tick (default: 10)
	ProgressStep int `env:"UPLOAD_PROGRESS_STEP" default:"10"`

	// ProgressInterval is the time between ticks (default: 200ms)
	ProgressInterval time.Duration `env:"UPLOAD_PROGRESS_INTERVAL" default:"200ms"`
}

// SessionConfig controls draft session lifetime.
type SessionConfig struct {
	// TTL is how long an untouched draft survives (default: 1h)
	TTL time.Duration `env:"DRAFT_TTL" default:"1h"`

	// CleanupInterval is how often expired drafts are closed (default: 10m)
	CleanupInterval time.Duration `env:"DRAFT_CLEANUP_INTERVAL" default:"10m"`

	// MaxDrafts caps concurrently open drafts (default: 500)
	MaxDrafts int `env:"DRAFT_MAX_OPEN" default:"500"`

	// DraftWait is how long NewDraft waits for a free slot (default: 2s)
	DraftWait time.Duration `env:"DRAFT_WAIT" default:"2s"`
}

// ReviewConfig controls the admin review queue.
type ReviewConfig struct {
	// Topic is the pub/sub topic submissions are published on
	Topic string `env:"REVIEW_TOPIC" default:"datasets.submitted"`

	// SeedFile replaces the embedded sample queue when set
	SeedFile string `env:"REVIEW_SEED_FILE"`

	// Reviewer is the name recorded on decisions (default: Admin User)
	Reviewer string `env:"REVIEW_REVIEWER" default:"Admin User"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// MutationLimit is the rate per IP for draft and review writes (default: 30)
	MutationLimit int `env:"RATE_LIMIT_MUTATIONS" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, receives logs through a rotating writer instead of stdout
	File string `env:"LOG_FILE"`

	MaxSizeMB  int `env:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`
}

// AuditConfig sizes the in-memory audit trail.
type AuditConfig struct {
	Size int `env:"AUDIT_SIZE" default:"1000"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
