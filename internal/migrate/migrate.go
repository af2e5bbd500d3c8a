// Package migrate applies the embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/foulezombie94/Glymo-ai/migrations"
)

// Dialects accepted by Up.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// Up runs all pending migrations for dialect against db.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	fsys, dir, err := source(dialect)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

// Version reports the currently applied migration version.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	fsys, _, err := source(dialect)
	if err != nil {
		return 0, err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

// UpPostgres opens dsn through the pgx stdlib driver and migrates it.
func UpPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return Up(ctx, db, DialectPostgres)
}

func source(dialect string) (fs.FS, string, error) {
	switch dialect {
	case DialectPostgres:
		return migrations.Postgres, "postgres", nil
	case DialectSQLite:
		return migrations.SQLite, "sqlite", nil
	}
	return nil, "", fmt.Errorf("unsupported migration dialect %q", dialect)
}
