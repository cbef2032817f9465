package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/infrastructure/buffer"
	"github.com/fastygo/habitflow/usecase"
)

// Completions drain ahead of other lifecycle events.
var eventPriority = map[string]int{
	domain.EventTaskCompleted:   2,
	domain.EventTaskUncompleted: 2,
}

// EventRecorder writes task events through the buffer processor.
type EventRecorder struct {
	processor *BufferProcessor
}

func NewEventRecorder(processor *BufferProcessor) *EventRecorder {
	return &EventRecorder{processor: processor}
}

func (r *EventRecorder) RecordEvent(ctx context.Context, event domain.TaskEvent) error {
	if r.processor == nil {
		return errors.New("event recorder not configured")
	}
	if event.ID == "" || event.TaskID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.processor.Submit(ctx, buffer.Entry{
		ID:       event.ID,
		UserID:   event.UserID,
		Kind:     buffer.KindTaskEvent,
		Payload:  payload,
		Priority: eventPriority[event.Name],
	})
}

var _ usecase.EventRecorder = (*EventRecorder)(nil)
