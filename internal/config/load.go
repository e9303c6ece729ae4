package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// VERBDRILL_SERVER_PORT for server.port.
const EnvPrefix = "VERBDRILL"

// Options control where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config file. When empty, config.yaml is
	// searched for in the working directory and ./config; it is optional.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment before
	// reading variables. Defaults to ".env"; a missing file is ignored.
	EnvFile string
}

// Load reads configuration with default options.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads configuration from defaults, an optional config file,
// an optional dotenv file and the environment, in increasing precedence, and
// validates the result.
func LoadWithOptions(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	_ = v.BindEnv("auth.jwt_secret")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.badger_path", "data/badger")
	v.SetDefault("database.badger_gc_interval", 5*time.Minute)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("catalog.path", "catalog/spanish.yaml")

	v.SetDefault("srs.min_ease_factor", 1.3)
	v.SetDefault("srs.default_ease_factor", 2.5)
	v.SetDefault("srs.max_interval_days", 365)
	v.SetDefault("srs.max_history", 0)

	v.SetDefault("review.timezone", "UTC")
	v.SetDefault("review.max_retries", 3)
	v.SetDefault("review.default_session_size", 10)
	v.SetDefault("review.random_seed", 0)
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Review.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: review.timezone: %w", err)
	}
	return nil
}
