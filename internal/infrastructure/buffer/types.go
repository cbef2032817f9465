package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// KindTaskEvent marks an entry carrying a domain.TaskEvent.
	KindTaskEvent = "task_event"

	defaultPriority = 3
	maxPriority     = 5
)

// Entry is a write held on disk until the primary store accepts it.
// Lower priority values drain first.
type Entry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	key []byte
}

func (e *Entry) normalize(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Priority <= 0 || e.Priority > maxPriority {
		e.Priority = defaultPriority
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = now
	}
}
