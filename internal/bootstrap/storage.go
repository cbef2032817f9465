// Package bootstrap opens the primary store selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/habitflow/internal/config"
	"github.com/fastygo/habitflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/habitflow/internal/infrastructure/postgres"
	"github.com/fastygo/habitflow/repository"
	"github.com/fastygo/habitflow/repository/postgres"
	"github.com/fastygo/habitflow/repository/sqlite"
)

// Storage groups the repositories of one driver.
type Storage struct {
	Driver     string
	Users      repository.UserRepository
	Tasks      repository.TaskRepository
	Profiles   repository.ProfileRepository
	Events     repository.EventRepository
	Transactor repository.Transactor
	Pinger     monitor.Pinger

	close func() error
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage connects to the configured driver, applying migrations first.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.Storage.SQLitePath))
		return &Storage{
			Driver:     config.StorageDriverSQLite,
			Users:      store.Users(),
			Tasks:      store.Tasks(),
			Profiles:   store.Profiles(),
			Events:     store.Events(),
			Transactor: store,
			Pinger:     store,
			close:      store.Close,
		}, nil

	case config.StorageDriverPostgres:
		if _, err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Storage{
			Driver:     config.StorageDriverPostgres,
			Users:      postgres.NewUserRepository(pool),
			Tasks:      postgres.NewTaskRepository(pool),
			Profiles:   postgres.NewProfileRepository(pool),
			Events:     postgres.NewEventRepository(pool),
			Transactor: postgres.NewTransactor(pool),
			Pinger:     pool,
			close: func() error {
				pgInfra.Close(pool, logger)
				return nil
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
