package persistence

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// MigratePostgres applies pending up migrations against the database at dsn.
func MigratePostgres(dsn string, logger *zap.Logger) error {
	src, err := migrationSource("migrations/postgres")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init postgres migrator: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()
	return runUp(m, "postgres", logger)
}

// MigrateSQLite applies pending up migrations on an open SQLite handle.
// The handle stays open after the call.
func MigrateSQLite(db *sql.DB, logger *zap.Logger) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init sqlite migration driver: %w", err)
	}
	return migrateWithDriver(driver, "migrations/sqlite", "sqlite", logger)
}

func migrateWithDriver(driver database.Driver, dir, name string, logger *zap.Logger) error {
	src, err := migrationSource(dir)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("init %s migrator: %w", name, err)
	}
	return runUp(m, name, logger)
}

func migrationSource(dir string) (source.Driver, error) {
	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return iofs.New(sub, ".")
}

func runUp(m *migrate.Migrate, name string, logger *zap.Logger) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations up to date", zap.String("driver", name))
			return nil
		}
		return fmt.Errorf("migrate %s up: %w", name, err)
	}
	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		zap.String("driver", name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
