package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded schema migrations to the database at dsn.
func RunMigrations(dsn string, logger *slog.Logger) error {
	const op = "postgres.RunMigrations"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("%s: open: %w", op, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: migrations fs: %w", op, err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: source driver: %w", op, err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: database driver: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: migrate instance: %w", op, err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			logger.Warn("closing migration source failed", slog.Any("error", sourceErr))
		}
		if dbErr != nil {
			logger.Warn("closing migration database failed", slog.Any("error", dbErr))
		}
	}()

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Debug("no previous migrations found")
	case err != nil:
		logger.Error("reading migration version failed", slog.Any("error", err))
	case dirty:
		logger.Warn("database is in a dirty migration state", slog.Uint64("version", uint64(version)))
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("migrations up to date")
			return nil
		}
		return fmt.Errorf("%s: up: %w", op, err)
	}

	if version, _, err := m.Version(); err == nil {
		logger.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}
	return nil
}
