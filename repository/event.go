package repository

import (
	"context"

	"github.com/fastygo/habitflow/domain"
)

type EventRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskEvent, error)
}
