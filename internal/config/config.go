// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageDynamoDB = "dynamodb"
)

// Auth modes.
const (
	AuthModeFirebase = "firebase"
	AuthModeDev      = "dev"
)

// Configuration errors.
var (
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
	ErrUnknownAuthMode       = errors.New("unknown auth mode")
	ErrMissingDatabaseURL    = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingAWSRegion      = errors.New("AWS_REGION is required for the dynamodb backend")
	ErrMissingProjectID      = errors.New("FIREBASE_PROJECT_ID is required for firebase auth")
	ErrDevAuthOutsideDev     = errors.New("AUTH_MODE=dev is only allowed when APP_ENV=development")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"5000"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// DynamoDB
	AWSRegion               string `env:"AWS_REGION"`
	DynamoDBEndpoint        string `env:"DYNAMODB_ENDPOINT"`
	DynamoDBUsersTable      string `env:"DYNAMODB_USERS_TABLE" envDefault:"Users"`
	DynamoDBListsTable      string `env:"DYNAMODB_LISTS_TABLE" envDefault:"Lists"`
	DynamoDBListsOwnerIndex string `env:"DYNAMODB_LISTS_OWNER_INDEX" envDefault:"ownerId-createdAt-index"`

	// Cache (Redis). Optional; enables the verified-claims cache and rate limiting.
	RedisURL string `env:"REDIS_URL"`

	// Identity provider
	AuthMode          string `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	// Optional service account key. Token verification works without one.
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (requires Redis)
	RateLimitEnabled      bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS          int  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst        int  `env:"RATE_LIMIT_BURST" envDefault:"40"`
	RateLimitSubjectRPM   int  `env:"RATE_LIMIT_SUBJECT_RPM" envDefault:"300"`
	RateLimitSubjectBurst int  `env:"RATE_LIMIT_SUBJECT_BURST" envDefault:"60"`

	// CORS configuration
	// Comma-separated list of allowed origins.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:3000"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StorageDynamoDB:
		if c.AWSRegion == "" {
			return ErrMissingAWSRegion
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageBackend, c.StorageBackend)
	}

	switch c.AuthMode {
	case AuthModeFirebase:
		if c.FirebaseProjectID == "" {
			return ErrMissingProjectID
		}
	case AuthModeDev:
		if !c.IsDevelopment() {
			return ErrDevAuthOutsideDev
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAuthMode, c.AuthMode)
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
