package usecase

import (
	"context"

	"github.com/fastygo/habitflow/domain"
)

// EventRecorder persists lifecycle events outside the lifecycle transaction,
// buffering them while the event store is unavailable.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event domain.TaskEvent) error
}

// SuggestionContext is what a provider may know besides the task itself.
type SuggestionContext struct {
	WeekStart      domain.Date
	WeekTasks      []string
	PastApproaches []string
}

// SuggestionProvider proposes an approach for a task. Calls are best-effort and may fail or time out.
type SuggestionProvider interface {
	SuggestApproach(ctx context.Context, task domain.Task, sc SuggestionContext) (string, error)
}
