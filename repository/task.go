package repository

import (
	"context"

	"github.com/fastygo/habitflow/domain"
)

// TaskRepository persists task records.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// GetForUpdate loads a task and holds a write lock until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	ListByUserAndWeek(ctx context.Context, userID string, weekStart domain.Date) ([]domain.Task, error)
	// ListActivityDates returns the distinct completion dates of the user's tasks,
	// restricted to category when it is not empty.
	ListActivityDates(ctx context.Context, userID, category string) ([]domain.Date, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
}
