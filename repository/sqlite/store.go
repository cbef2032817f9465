// Package sqlite stores tasks, streaks and events in an embedded SQLite file.
// It is the single-node driver; Postgres is used when the service runs clustered.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store owns the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers, which gives every transaction row-level exclusivity.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Tasks() repository.TaskRepository       { return &taskRepository{db: s.db} }
func (s *Store) Profiles() repository.ProfileRepository { return &profileRepository{db: s.db} }
func (s *Store) Users() repository.UserRepository       { return &userRepository{db: s.db} }
func (s *Store) Events() repository.EventRepository     { return &eventRepository{db: s.db} }

// WithinTransaction implements repository.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, repository.Stores{
		Tasks:    &taskRepository{db: tx},
		Profiles: &profileRepository{db: tx},
	}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'active',
		metadata     TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT '',
		priority            TEXT NOT NULL DEFAULT 'medium',
		estimated_duration  TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'pending',
		started_at          TEXT,
		completed_at        TEXT,
		completed_on        TEXT,
		actual_time_minutes INTEGER,
		suggested_approach  TEXT NOT NULL DEFAULT '',
		accepted_approach   INTEGER NOT NULL DEFAULT 0,
		user_approach       TEXT NOT NULL DEFAULT '',
		result_notes        TEXT NOT NULL DEFAULT '',
		metrics_tracked     TEXT NOT NULL DEFAULT '',
		week_start_date     TEXT NOT NULL,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS tasks_user_week_idx ON tasks (user_id, week_start_date);
	CREATE INDEX IF NOT EXISTS tasks_user_activity_idx ON tasks (user_id, status, completed_on);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id               TEXT PRIMARY KEY,
		current_streak        INTEGER NOT NULL DEFAULT 0,
		best_streak           INTEGER NOT NULL DEFAULT 0,
		last_activity_date    TEXT,
		total_tasks_completed INTEGER NOT NULL DEFAULT 0,
		updated_at            TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS platform_streaks (
		user_id            TEXT NOT NULL,
		category           TEXT NOT NULL,
		current_streak     INTEGER NOT NULL DEFAULT 0,
		best_streak        INTEGER NOT NULL DEFAULT 0,
		last_activity_date TEXT,
		updated_at         TEXT NOT NULL,
		PRIMARY KEY (user_id, category)
	);

	CREATE TABLE IF NOT EXISTS task_events (
		id          TEXT PRIMARY KEY,
		task_id     TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status   TEXT NOT NULL,
		payload     TEXT NOT NULL DEFAULT '',
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS task_events_task_idx ON task_events (task_id, occurred_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func parseNullDate(value sql.NullString) (*domain.Date, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nowString() string {
	return formatTime(time.Now())
}
