package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastygo/habitflow/domain"
)

const taskColumns = `id, user_id, title, description, category, priority, estimated_duration, status,
	started_at, completed_at, completed_on, actual_time_minutes,
	suggested_approach, accepted_approach, user_approach, result_notes, metrics_tracked,
	week_start_date, created_at, updated_at`

type taskRepository struct {
	db querier
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// GetForUpdate relies on the single-connection pool for exclusivity.
func (r *taskRepository) GetForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *taskRepository) ListByUserAndWeek(ctx context.Context, userID string, weekStart domain.Date) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = ? AND week_start_date = ?
	ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at`

	rows, err := r.db.QueryContext(ctx, query, userID, weekStart.String())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
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
	WHERE user_id = ?
	  AND status = 'completed'
	  AND completed_on IS NOT NULL
	  AND (? = '' OR category = ?)
	ORDER BY completed_on`

	rows, err := r.db.QueryContext(ctx, query, userID, category, category)
	if err != nil {
		return nil, fmt.Errorf("list activity dates: %w", err)
	}
	defer rows.Close()

	var dates []domain.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		day, err := domain.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, day)
	}
	return dates, rows.Err()
}

func (r *taskRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = 'completed'`, userID).Scan(&count)
	return count, err
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

	now := nowString()
	args := append(taskArgs(task), now, now)
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return r.refreshTimestamps(ctx, task)
}

// Update upserts the task. Owner, week and creation time are never rewritten.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := task.Validate(); err != nil {
		return err
	}

	now := nowString()
	args := append(taskArgs(task), now, now)
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = excluded.title,
		description = excluded.description,
		category = excluded.category,
		priority = excluded.priority,
		estimated_duration = excluded.estimated_duration,
		status = excluded.status,
		started_at = excluded.started_at,
		completed_at = excluded.completed_at,
		completed_on = excluded.completed_on,
		actual_time_minutes = excluded.actual_time_minutes,
		suggested_approach = excluded.suggested_approach,
		accepted_approach = excluded.accepted_approach,
		user_approach = excluded.user_approach,
		result_notes = excluded.result_notes,
		metrics_tracked = excluded.metrics_tracked,
		updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return r.refreshTimestamps(ctx, task)
}

func (r *taskRepository) refreshTimestamps(ctx context.Context, task *domain.Task) error {
	var created, updated string
	if err := r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM tasks WHERE id = ?`, task.ID).Scan(&created, &updated); err != nil {
		return err
	}
	var err error
	if task.CreatedAt, err = parseTime(created); err != nil {
		return err
	}
	task.UpdatedAt, err = parseTime(updated)
	return err
}

func taskArgs(task *domain.Task) []any {
	metrics := ""
	if len(task.MetricsTracked) > 0 {
		if b, err := json.Marshal(task.MetricsTracked); err == nil {
			metrics = string(b)
		}
	}
	var actual any
	if task.ActualTimeMinutes != nil {
		actual = *task.ActualTimeMinutes
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
		nullTime(task.StartedAt),
		nullTime(task.CompletedAt),
		nullDate(task.CompletedOn),
		actual,
		task.SuggestedApproach,
		task.AcceptedApproach,
		task.UserApproach,
		task.ResultNotes,
		metrics,
		task.WeekStartDate.String(),
	}
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		priority, status     string
		startedAt, completed sql.NullString
		completedOn          sql.NullString
		actual               sql.NullInt64
		metrics, weekStart   string
		createdAt, updatedAt string
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
		&startedAt,
		&completed,
		&completedOn,
		&actual,
		&task.SuggestedApproach,
		&task.AcceptedApproach,
		&task.UserApproach,
		&task.ResultNotes,
		&metrics,
		&weekStart,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)

	var err error
	if task.StartedAt, err = parseNullTime(startedAt); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseNullTime(completed); err != nil {
		return nil, err
	}
	if task.CompletedOn, err = parseNullDate(completedOn); err != nil {
		return nil, err
	}
	if actual.Valid {
		minutes := int(actual.Int64)
		task.ActualTimeMinutes = &minutes
	}
	if task.WeekStartDate, err = domain.ParseDate(weekStart); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if metrics != "" {
		if err := json.Unmarshal([]byte(metrics), &task.MetricsTracked); err != nil {
			return nil, fmt.Errorf("decode metrics of task %s: %w", task.ID, err)
		}
	}
	return &task, nil
}
