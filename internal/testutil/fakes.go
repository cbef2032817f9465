package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
	"github.com/fastygo/habitflow/usecase"
)

// MemoryCache is an in-memory repository.StreakCache.
type MemoryCache struct {
	mu            sync.Mutex
	entries       map[string]repository.StreakSummary
	generations   map[string]int64
	Hits          int
	Invalidations int
	Dropped       int
	// BeforeSet runs at the start of Set, outside the cache lock.
	BeforeSet func()
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:     map[string]repository.StreakSummary{},
		generations: map[string]int64{},
	}
}

func (c *MemoryCache) Get(_ context.Context, userID string, asOf domain.Date) (*repository.StreakSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[userID]
	if !ok || s.AsOf != asOf {
		return nil, nil
	}
	c.Hits++
	return &s, nil
}

func (c *MemoryCache) Generation(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID], nil
}

func (c *MemoryCache) Set(_ context.Context, summary *repository.StreakSummary, generation int64, _ time.Duration) error {
	if c.BeforeSet != nil {
		c.BeforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[summary.UserID] != generation {
		c.Dropped++
		return nil
	}
	c.entries[summary.UserID] = *summary
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.generations[userID]++
	c.Invalidations++
	return nil
}

// RecordingRecorder keeps recorded events in memory.
type RecordingRecorder struct {
	mu     sync.Mutex
	events []domain.TaskEvent
	Err    error
}

func (r *RecordingRecorder) RecordEvent(_ context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *RecordingRecorder) Events() []domain.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TaskEvent(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *RecordingRecorder) Names() []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, e.Name)
	}
	return names
}

// StubSuggester returns Text or Err. A positive Delay blocks until it elapses or ctx ends.
type StubSuggester struct {
	mu    sync.Mutex
	Text  string
	Err   error
	Delay time.Duration

	calls       int
	lastContext usecase.SuggestionContext
}

func (s *StubSuggester) SuggestApproach(ctx context.Context, _ domain.Task, sc usecase.SuggestionContext) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastContext = sc
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

func (s *StubSuggester) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubSuggester) LastContext() usecase.SuggestionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastContext
}
