package domain

import (
	"encoding/json"
	"time"
)

// Lifecycle event names.
const (
	EventTaskCreated        = "task.created"
	EventTaskStarted        = "task.started"
	EventTaskCompleted      = "task.completed"
	EventTaskUncompleted    = "task.uncompleted"
	EventTaskStartCancelled = "task.start_cancelled"
)

// TaskEvent records one lifecycle transition applied to a task.
type TaskEvent struct {
	ID         string          `json:"id"`
	TaskID     string          `json:"task_id"`
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	From       Status          `json:"from,omitempty"`
	To         Status          `json:"to"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
