package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foulezombie94/Glymo-ai/internal/config"
	"github.com/foulezombie94/Glymo-ai/internal/migrate"
	"github.com/foulezombie94/Glymo-ai/internal/storage/sqlite"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return withMigrationDB(cfg, func(db *sql.DB, dialect string) error {
				if err := migrate.Up(cmd.Context(), db, dialect); err != nil {
					return err
				}
				v, err := migrate.Version(cmd.Context(), db, dialect)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", v)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return withMigrationDB(cfg, func(db *sql.DB, dialect string) error {
				v, err := migrate.Version(cmd.Context(), db, dialect)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	})
	return cmd
}

// withMigrationDB opens a database/sql handle for the configured driver.
func withMigrationDB(cfg *config.Config, fn func(db *sql.DB, dialect string) error) error {
	if cfg.DBDriver == config.DriverSQLite {
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(s.DB(), migrate.DialectSQLite)
	}
	db, err := sql.Open("pgx", cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	return fn(db, migrate.DialectPostgres)
}
