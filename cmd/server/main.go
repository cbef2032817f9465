package main

import (
	"context"
	"log"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/habitflow/api/handler"
	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/bootstrap"
	"github.com/fastygo/habitflow/internal/config"
	"github.com/fastygo/habitflow/internal/infrastructure/buffer"
	"github.com/fastygo/habitflow/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/habitflow/internal/infrastructure/redis"
	"github.com/fastygo/habitflow/internal/middleware"
	"github.com/fastygo/habitflow/internal/router"
	"github.com/fastygo/habitflow/internal/services"
	"github.com/fastygo/habitflow/internal/services/ai"
	"github.com/fastygo/habitflow/internal/services/lifecycle"
	"github.com/fastygo/habitflow/pkg/httpcontext"
	"github.com/fastygo/habitflow/pkg/logger"
	"github.com/fastygo/habitflow/repository"
	redisRepo "github.com/fastygo/habitflow/repository/redis"
	"github.com/fastygo/habitflow/usecase"
	profileUC "github.com/fastygo/habitflow/usecase/profile"
	taskUC "github.com/fastygo/habitflow/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		AppName:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	calendar, err := domain.LoadCalendar(cfg.Streak.Timezone)
	if err != nil {
		zapLogger.Fatal("invalid streak timezone", zap.Error(err))
	}

	storage, err := bootstrap.OpenStorage(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.Error(err))
	}
	manager.OnStop("storage", func(ctx context.Context) error {
		return storage.Close()
	})

	var (
		redisClient *redislib.Client
		streakCache repository.StreakCache
	)
	if cfg.Streak.CacheEnabled {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Warn("redis unavailable, streak cache disabled", zap.Error(err))
		} else {
			streakCache = redisRepo.NewStreakCache(redisClient, 24*time.Hour)
			manager.OnStop("redis", func(ctx context.Context) error {
				return redisClient.Close()
			})
		}
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.OnStop("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(monitor.Targets{
		StorageDriver: storage.Driver,
		Storage:       storage.Pinger,
		Redis:         redisClient,
		Buffer:        bufferStore,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.OnStop("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		storage.Events,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	bufferProcessor.Start()
	manager.OnStop("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	var suggester usecase.SuggestionProvider
	if cfg.AI.APIKey != "" {
		suggester = ai.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, zapLogger)
	} else {
		zapLogger.Info("OPENAI_API_KEY not set, approach suggestions disabled")
	}

	taskUseCase := taskUC.New(taskUC.Dependencies{
		Tasks:             storage.Tasks,
		Events:            storage.Events,
		Transactor:        storage.Transactor,
		Cache:             streakCache,
		Recorder:          services.NewEventRecorder(bufferProcessor),
		Suggester:         suggester,
		Clock:             domain.RealClock{},
		Calendar:          calendar,
		SuggestionTimeout: cfg.AI.SuggestionTimeout,
	}, zapLogger)
	profileUseCase := profileUC.New(profileUC.Dependencies{
		Users:      storage.Users,
		Profiles:   storage.Profiles,
		Tasks:      storage.Tasks,
		Transactor: storage.Transactor,
		Cache:      streakCache,
		Clock:      domain.RealClock{},
		Calendar:   calendar,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	var auth middleware.Middleware
	if cfg.JWT.Secret != "" {
		auth = middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	} else {
		zapLogger.Warn("JWT_SECRET not set, trusting X-User-ID header")
		auth = middleware.HeaderIdentity()
	}
	r := router.New(handlers, auth)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	manager.OnStop("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})
	manager.Go(appCtx, "http_server", func(ctx context.Context) error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", storage.Driver),
			zap.String("timezone", cfg.Streak.Timezone))
		return server.ListenAndServe(cfg.Address())
	})

	if err := manager.Run(appCtx); err != nil {
		zapLogger.Error("shutdown finished with errors", zap.Error(err))
	}
}
