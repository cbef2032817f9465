package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/internal/config"
)

// RunMigrations applies pending schema migrations and returns the resulting version.
func RunMigrations(db config.DatabaseConfig, mig config.MigrationsConfig, logger *zap.Logger) (uint, error) {
	if !mig.Enabled {
		return 0, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", connString(db))
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return 0, fmt.Errorf("ping for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return 0, err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(mig.Path))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, db.Name, driver)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}

	logger.Info("database migrations applied", zap.Uint("version", version))
	return version, nil
}
