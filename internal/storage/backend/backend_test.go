package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/config"
	"github.com/foulezombie94/Glymo-ai/internal/nutrition"
)

func TestOpen_SQLiteMigratesOnOpen(t *testing.T) {
	cfg := &config.Config{
		DBDriver:      config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "nested", "glymo.db"),
		RunMigrations: true,
	}
	store, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.InsertMeal(context.Background(), "u1", nutrition.MealEntry{Name: "Apple", Calories: 52})
	require.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{DBDriver: "mysql"}, zap.NewNop())
	require.ErrorContains(t, err, "unsupported DB_DRIVER")
}
