package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

type eventRepository struct {
	db querier
}

// NewEventRepository creates a Postgres-backed task event log.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{db: pool}
}

// Append is idempotent on the event id so buffered replays never duplicate history.
func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.TaskID == "" || event.Name == "" {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO task_events (id, task_id, user_id, name, from_status, to_status, payload, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	var payload []byte
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.TaskID,
		event.UserID,
		event.Name,
		string(event.From),
		string(event.To),
		payload,
		nullTime(event.OccurredAt),
	)
	return err
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, user_id, name, from_status, to_status, payload, occurred_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY occurred_at, id
	`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var (
			event    domain.TaskEvent
			from, to string
			payload  []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.UserID, &event.Name, &from, &to, &payload, &event.OccurredAt); err != nil {
			return nil, err
		}
		event.From = domain.Status(from)
		event.To = domain.Status(to)
		if len(payload) > 0 {
			event.Payload = append([]byte(nil), payload...)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
