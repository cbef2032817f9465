package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/bootstrap"
	"github.com/fastygo/habitflow/internal/config"
	redisInfra "github.com/fastygo/habitflow/internal/infrastructure/redis"
	"github.com/fastygo/habitflow/pkg/logger"
	"github.com/fastygo/habitflow/repository"
	redisRepo "github.com/fastygo/habitflow/repository/redis"
	profileUC "github.com/fastygo/habitflow/usecase/profile"
	taskUC "github.com/fastygo/habitflow/usecase/task"
)

// env holds what a command needs; close releases it.
type env struct {
	profiles *profileUC.UseCase
	tasks    *taskUC.UseCase
	calendar domain.Calendar
	close    func()
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path, _ := cmd.Flags().GetString("sqlite-path"); path != "" {
		cfg.Storage.SQLitePath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: "warn", Encoding: "console"})
	if err != nil {
		return nil, err
	}

	calendar, err := domain.LoadCalendar(cfg.Streak.Timezone)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { _ = storage.Close() }}

	var cache repository.StreakCache
	if cfg.Streak.CacheEnabled {
		if client, err := redisInfra.NewClient(ctx, cfg.Redis, log); err == nil {
			cache = redisRepo.NewStreakCache(client, 0)
			closers = append(closers, func() { _ = client.Close() })
		} else {
			log.Warn("redis unavailable, cached streaks will expire on their own", zap.Error(err))
		}
	}

	return &env{
		profiles: profileUC.New(profileUC.Dependencies{
			Users:      storage.Users,
			Profiles:   storage.Profiles,
			Tasks:      storage.Tasks,
			Transactor: storage.Transactor,
			Cache:      cache,
			Calendar:   calendar,
		}, log),
		tasks: taskUC.New(taskUC.Dependencies{
			Tasks:      storage.Tasks,
			Events:     storage.Events,
			Transactor: storage.Transactor,
			Cache:      cache,
			Calendar:   calendar,
		}, log),
		calendar: calendar,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			_ = log.Sync()
		},
	}, nil
}

func requireUser(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}

func formatDate(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
