package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSQLite(t *testing.T) {
	t.Setenv("GLYMO_DB_DRIVER", "sqlite")
	t.Setenv("GLYMO_SQLITE_PATH", "/tmp/glymo-test.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTPAddr)
	require.Equal(t, 200, cfg.MealLimit)
	require.Equal(t, 64, cfg.AuditBuffer)
	require.True(t, cfg.RunMigrations)
	require.Equal(t, "https://world.openfoodfacts.org", cfg.OFFBaseURL)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 30*time.Second, cfg.GeminiTimeout)
	require.False(t, cfg.IsProduction())
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("GLYMO_DB_DRIVER", "postgres")
	t.Setenv("GLYMO_DB_URL", "")

	_, err := Load()
	require.ErrorContains(t, err, "GLYMO_DB_URL")
}

func TestValidate(t *testing.T) {
	cfg := Config{DBDriver: "mysql", MealLimit: 200}
	require.ErrorContains(t, cfg.Validate(), "unsupported DB_DRIVER")

	cfg = Config{DBDriver: DriverPostgres, DBURL: "postgres://x", MealLimit: 0}
	require.ErrorContains(t, cfg.Validate(), "MEAL_LIMIT")

	cfg = Config{DBDriver: DriverPostgres, DBURL: "postgres://x", MealLimit: 10}
	require.ErrorContains(t, cfg.Validate(), "GEMINI_TIMEOUT")

	cfg = Config{DBDriver: DriverPostgres, DBURL: "postgres://x", MealLimit: 10,
		HTTPTimeout: time.Second, GeminiTimeout: time.Second}
	require.NoError(t, cfg.Validate())
}

func TestLoad_GeminiTimeoutOverride(t *testing.T) {
	t.Setenv("GLYMO_DB_DRIVER", "sqlite")
	t.Setenv("GLYMO_GEMINI_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, cfg.GeminiTimeout)
}
