package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

const taskColumns = `id, user_id, title, description, category, priority, estimated_duration, status,
	started_at, completed_at, completed_on, actual_time_minutes,
	suggested_approach, accepted_approach, user_approach, result_notes, metrics_tracked,
	week_start_date, created_at, updated_at`

type taskRepository struct {
	db querier
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{db: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *taskRepository) GetForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *taskRepository) ListByUserAndWeek(ctx context.Context, userID string, weekStart domain.Date) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND week_start_date = $2
	ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at`

	rows, err := r.db.Query(ctx, query, userID, weekStart.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ListActivityDates(ctx context.Context, userID, category string) ([]domain.Date, error) {
	const query = `
	SELECT DISTINCT completed_on
	FROM tasks
	WHERE user_id = $1
	  AND status = 'completed'
	  AND completed_on IS NOT NULL
	  AND ($2 = '' OR category = $2)
	ORDER BY completed_on
	`
	rows, err := r.db.Query(ctx, query, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []domain.Date
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, domain.DateOf(day.UTC()))
	}
	return dates, rows.Err()
}

func (r *taskRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'completed'`
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := task.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
	RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query, taskArgs(task)...).Scan(&task.CreatedAt, &task.UpdatedAt)
}

// Update upserts the task. Owner, week and creation time are never rewritten.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := task.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		priority = EXCLUDED.priority,
		estimated_duration = EXCLUDED.estimated_duration,
		status = EXCLUDED.status,
		started_at = EXCLUDED.started_at,
		completed_at = EXCLUDED.completed_at,
		completed_on = EXCLUDED.completed_on,
		actual_time_minutes = EXCLUDED.actual_time_minutes,
		suggested_approach = EXCLUDED.suggested_approach,
		accepted_approach = EXCLUDED.accepted_approach,
		user_approach = EXCLUDED.user_approach,
		result_notes = EXCLUDED.result_notes,
		metrics_tracked = EXCLUDED.metrics_tracked,
		updated_at = NOW()
	RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query, taskArgs(task)...).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func taskArgs(task *domain.Task) []any {
	var metrics []byte
	if len(task.MetricsTracked) > 0 {
		metrics = marshalJSON(task.MetricsTracked)
	}
	return []any{
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Category,
		string(task.Priority),
		task.EstimatedDuration,
		string(task.Status),
		nullTimePtr(task.StartedAt),
		nullTimePtr(task.CompletedAt),
		nullDate(task.CompletedOn),
		nullInt(task.ActualTimeMinutes),
		task.SuggestedApproach,
		task.AcceptedApproach,
		task.UserApproach,
		task.ResultNotes,
		metrics,
		task.WeekStartDate.Time(),
	}
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		priority    string
		status      string
		completedOn *time.Time
		actual      *int32
		metrics     []byte
		weekStart   time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Category,
		&priority,
		&task.EstimatedDuration,
		&status,
		&task.StartedAt,
		&task.CompletedAt,
		&completedOn,
		&actual,
		&task.SuggestedApproach,
		&task.AcceptedApproach,
		&task.UserApproach,
		&task.ResultNotes,
		&metrics,
		&weekStart,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	task.CompletedOn = datePtr(completedOn)
	task.ActualTimeMinutes = intPtr(actual)
	task.WeekStartDate = domain.DateOf(weekStart.UTC())
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &task.MetricsTracked); err != nil {
			return nil, fmt.Errorf("decode metrics of task %s: %w", task.ID, err)
		}
	}

	return &task, nil
}
