package repository

import (
	"context"
	"time"

	"github.com/fastygo/habitflow/domain"
)

// StreakSummary is the read model served by the streak endpoint.
type StreakSummary struct {
	UserID              string                  `json:"user_id"`
	AsOf                domain.Date             `json:"as_of"`
	CurrentStreak       int                     `json:"current_streak"`
	BestStreak          int                     `json:"best_streak"`
	LastActivityDate    *domain.Date            `json:"last_activity_date,omitempty"`
	ActiveToday         bool                    `json:"active_today"`
	TotalTasksCompleted int                     `json:"total_tasks_completed"`
	Platforms           []domain.PlatformStreak `json:"platforms"`
}

// StreakCache stores computed summaries until the end of the user's day.
// Every Invalidate bumps a per-user generation; a Set carrying an older generation is dropped,
// so a summary computed before a mutation cannot be cached after it.
type StreakCache interface {
	// Get returns nil and no error on a miss.
	Get(ctx context.Context, userID string, asOf domain.Date) (*StreakSummary, error)
	// Generation is read before the summary is computed.
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, summary *StreakSummary, generation int64, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}
