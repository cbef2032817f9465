package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/habitflow/domain"
)

type eventRepository struct {
	db querier
}

func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.TaskID == "" || event.Name == "" {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	const query = `
	INSERT INTO task_events (id, task_id, user_id, name, from_status, to_status, payload, occurred_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.TaskID,
		event.UserID,
		event.Name,
		string(event.From),
		string(event.To),
		string(event.Payload),
		formatTime(event.OccurredAt),
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, user_id, name, from_status, to_status, payload, occurred_at
	FROM task_events
	WHERE task_id = ?
	ORDER BY occurred_at, id`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var (
			event             domain.TaskEvent
			from, to, payload string
			occurred          string
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.UserID, &event.Name, &from, &to, &payload, &occurred); err != nil {
			return nil, err
		}
		event.From = domain.Status(from)
		event.To = domain.Status(to)
		if payload != "" {
			event.Payload = []byte(payload)
		}
		if event.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
