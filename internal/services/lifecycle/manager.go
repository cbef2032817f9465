// Package lifecycle supervises the long-running parts of the server and tears
// them down in reverse start order.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases a component. It must return once ctx is done.
type StopFunc func(ctx context.Context) error

// RunFunc blocks while a component serves. A non-nil error other than
// context.Canceled stops the whole process.
type RunFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager runs background components and stops every registered component on exit.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	signals []os.Signal

	mu         sync.Mutex
	components []component

	wg       sync.WaitGroup
	failures chan error
	stopOnce sync.Once
	stopErr  error
}

// New creates a manager whose stop phase is bounded by timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout:  timeout,
		logger:   logger,
		signals:  []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		failures: make(chan error, 1),
	}
}

// OnStop registers a component to release. Components stop in reverse registration order.
func (m *Manager) OnStop(name string, fn StopFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: fn})
}

// Go runs fn in the background with a context cancelled when the manager stops.
func (m *Manager) Go(ctx context.Context, name string, fn RunFunc) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := fn(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		m.logger.Error("component failed", zap.String("component", name), zap.Error(err))
		select {
		case m.failures <- err:
		default:
		}
	}()
}

// Run blocks until ctx ends, a termination signal arrives or a background
// component fails, then stops everything. It returns the component failure, if
// any, joined with the errors of the stop phase.
func (m *Manager) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, m.signals...)
	defer signal.Stop(sigCh)

	var cause error
	select {
	case <-ctx.Done():
		m.logger.Info("shutdown requested")
	case sig := <-sigCh:
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case cause = <-m.failures:
	}

	return errors.Join(cause, m.Stop())
}

// Stop releases every registered component once. Later calls return the first result.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.mu.Lock()
		components := append([]component(nil), m.components...)
		m.mu.Unlock()

		for i := len(components) - 1; i >= 0; i-- {
			c := components[i]
			started := time.Now()
			if err := c.stop(ctx); err != nil {
				m.logger.Error("component stop failed", zap.String("component", c.name), zap.Error(err))
				m.stopErr = errors.Join(m.stopErr, err)
				continue
			}
			m.logger.Info("component stopped",
				zap.String("component", c.name),
				zap.Duration("took", time.Since(started)))
		}

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn("background components still running after shutdown timeout")
			m.stopErr = errors.Join(m.stopErr, ctx.Err())
		}
	})
	return m.stopErr
}
