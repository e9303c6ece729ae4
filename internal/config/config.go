package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and configures the review state store.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres badger memory"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`

	BadgerPath       string        `mapstructure:"badger_path" validate:"required_if=Driver badger"`
	BadgerGCInterval time.Duration `mapstructure:"badger_gc_interval" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// CatalogConfig locates the conjugation catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SRSConfig tunes the scheduling engine.
type SRSConfig struct {
	MinEaseFactor     float64 `mapstructure:"min_ease_factor" validate:"gte=1.3"`
	DefaultEaseFactor float64 `mapstructure:"default_ease_factor" validate:"gtefield=MinEaseFactor"`
	MaxIntervalDays   int     `mapstructure:"max_interval_days" validate:"gte=1,lte=365"`
	// MaxHistory bounds the stored quality history per item; 0 keeps everything.
	MaxHistory int `mapstructure:"max_history" validate:"gte=0"`
}

// ReviewConfig configures the queue, selector and attempt services.
type ReviewConfig struct {
	// Timezone is the IANA zone used for calendar-day statistics.
	Timezone           string `mapstructure:"timezone" validate:"required"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=1,lte=20"`
	DefaultSessionSize int    `mapstructure:"default_session_size" validate:"gte=1,lte=100"`
	// RandomSeed makes exercise selection reproducible; 0 seeds randomly.
	RandomSeed int64 `mapstructure:"random_seed"`
}

// Location resolves Timezone. Load has already validated it.
func (c ReviewConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
