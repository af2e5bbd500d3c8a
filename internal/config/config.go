// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Prefix is prepended to every variable name, e.g. GLYMO_DB_URL.
const Prefix = "GLYMO"

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the settings for the API server and the CLI.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":3000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBURL      string `envconfig:"DB_URL"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/glymo.db"`

	// RunMigrations applies pending migrations before serving.
	RunMigrations bool `envconfig:"RUN_MIGRATIONS" default:"true"`

	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	OFFBaseURL    string        `envconfig:"OFF_BASE_URL" default:"https://world.openfoodfacts.org"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	// GeminiTimeout is separate from HTTPTimeout: photo recognition is
	// slower than a product lookup.
	GeminiTimeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`

	MealLimit   int `envconfig:"MEAL_LIMIT" default:"200"`
	AuditBuffer int `envconfig:"AUDIT_BUFFER" default:"64"`
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBURL == "" {
			return errors.New("GLYMO_DB_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("GLYMO_SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.MealLimit <= 0 {
		return fmt.Errorf("MEAL_LIMIT must be positive, got %d", c.MealLimit)
	}
	if c.HTTPTimeout <= 0 || c.GeminiTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT and GEMINI_TIMEOUT must be positive")
	}
	if c.AuditBuffer < 0 {
		return fmt.Errorf("AUDIT_BUFFER must not be negative, got %d", c.AuditBuffer)
	}
	return nil
}

// IsProduction reports whether the production logger and gin release mode apply.
func (c *Config) IsProduction() bool { return c.Environment == "production" }

// Load reads an optional .env file and then the GLYMO_* environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Log writes the effective settings without secrets.
func (c *Config) Log(log *zap.Logger) {
	log.Info("configuration loaded",
		zap.String("environment", c.Environment),
		zap.String("http_addr", c.HTTPAddr),
		zap.String("db_driver", c.DBDriver),
		zap.Bool("db_url_present", c.DBURL != ""),
		zap.Bool("gemini_key_present", c.GeminiAPIKey != ""),
		zap.String("off_base_url", c.OFFBaseURL),
		zap.Duration("http_timeout", c.HTTPTimeout),
		zap.Duration("gemini_timeout", c.GeminiTimeout),
		zap.Int("meal_limit", c.MealLimit),
		zap.Bool("run_migrations", c.RunMigrations),
	)
}
