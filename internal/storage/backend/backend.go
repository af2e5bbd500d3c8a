// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/config"
	"github.com/foulezombie94/Glymo-ai/internal/migrate"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
	"github.com/foulezombie94/Glymo-ai/internal/storage/postgres"
	"github.com/foulezombie94/Glymo-ai/internal/storage/sqlite"
)

// Open connects to the configured backend. Pending migrations are applied
// first when cfg.RunMigrations is set.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := migrate.Up(ctx, s.DB(), migrate.DialectSQLite); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		log.Info("sqlite store ready", zap.String("path", cfg.SQLitePath))
		return s, nil
	case config.DriverPostgres:
		if cfg.RunMigrations {
			if err := migrate.UpPostgres(ctx, cfg.DBURL); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		db, err := postgres.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("DB pool ready")
		return db, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
}
