package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/infrastructure/buffer"
	"github.com/fastygo/habitflow/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained and pruned.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// BufferProcessor delivers buffered task events to the event store.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	events  repository.EventRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	events repository.EventRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})
	_, _ = bp.cron.AddFunc("@hourly", func() {
		removed, err := bp.store.Prune(time.Now().Add(-cfg.Retention))
		if err != nil {
			bp.logger.Error("buffer prune failed", zap.Error(err))
			return
		}
		if removed > 0 {
			bp.logger.Warn("pruned expired buffer entries", zap.Int("count", removed))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop waits for running jobs or ctx, whichever ends first.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain delivers one batch of buffered events.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	entries, err := bp.store.Peek(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := bp.deliver(ctx, entry); err != nil {
			bp.logger.Error("failed to deliver buffered event",
				zap.String("entry_id", entry.ID),
				zap.String("kind", entry.Kind),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))

			if entry.Attempts+1 >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffered event (max retries reached)", zap.String("entry_id", entry.ID))
				_ = bp.store.Ack(entry)
				continue
			}
			if err := bp.store.Retry(entry); err != nil {
				bp.logger.Error("failed to requeue buffered event", zap.Error(err))
			}
			continue
		}

		if err := bp.store.Ack(entry); err != nil {
			bp.logger.Warn("failed to purge delivered event", zap.Error(err))
		}
	}
	return nil
}

// Submit delivers the entry immediately when the store is online and buffers it otherwise.
func (bp *BufferProcessor) Submit(ctx context.Context, entry buffer.Entry) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.deliver(ctx, entry)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate delivery failed, buffering", zap.String("entry_id", entry.ID), zap.Error(err))
	}
	return bp.store.Enqueue(entry)
}

// Size returns the number of buffered entries.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Len()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) deliver(ctx context.Context, entry buffer.Entry) error {
	switch entry.Kind {
	case buffer.KindTaskEvent:
		var event domain.TaskEvent
		if err := json.Unmarshal(entry.Payload, &event); err != nil {
			return err
		}
		return bp.events.Append(ctx, event)
	default:
		return fmt.Errorf("unsupported buffer entry kind %q", entry.Kind)
	}
}
