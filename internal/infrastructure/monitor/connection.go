package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/internal/infrastructure/buffer"
)

// Pinger is implemented by *pgxpool.Pool and *sqlite.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Targets lists what the monitor probes. Redis is optional.
type Targets struct {
	StorageDriver string
	Storage       Pinger
	Redis         *redislib.Client
	Buffer        *buffer.Store
}

type Monitor struct {
	targets Targets

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(targets Targets, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		targets:  targets,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the primary store answered the last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every target once and stores the result.
func (m *Monitor) Refresh() {
	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		StorageDriver: m.targets.StorageDriver,
		Storage:       m.checkStorage(),
		Cache:         m.checkRedis(),
		CacheEnabled:  m.targets.Redis != nil,
		Buffer:        bufferOK,
		BufferSize:    bufferSize,
		LastCheck:     time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Storage != status.Storage {
		m.logger.Warn("storage availability changed",
			zap.String("driver", status.StorageDriver),
			zap.Bool("online", status.Storage))
	}
}

func (m *Monitor) checkStorage() bool {
	if m.targets.Storage == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.targets.Storage.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.targets.Redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.targets.Redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.targets.Buffer == nil {
		return false, 0
	}
	size, err := m.targets.Buffer.Len()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
