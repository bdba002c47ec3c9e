// Package dbmigrate applies the embedded PostgreSQL schema with goose.
package dbmigrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// gooseUp is replaced in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Up applies every pending migration against dsn.
func Up(ctx context.Context, dsn string) error {
	db, err := open(dsn)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := gooseUp(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("dbmigrate: up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		slog.WarnContext(ctx, "dbmigrate: read version", "error", err)
		return nil
	}
	slog.InfoContext(ctx, "database schema is up to date", "version", version)

	return nil
}

// Reset rolls back every migration. Used by tests.
func Reset(ctx context.Context, dsn string) error {
	db, err := open(dsn)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := goose.ResetContext(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("dbmigrate: reset: %w", err)
	}
	return nil
}

func open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("dbmigrate: database url is empty")
	}

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return nil, fmt.Errorf("dbmigrate: dialect: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbmigrate: open: %w", err)
	}
	return db, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("dbmigrate: close", "error", err)
	}
}
