package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastygo/habitflow/domain"
)

type profileRepository struct {
	db querier
}

// LockUser is a no-op: the single pooled connection already serialises transactions.
func (r *profileRepository) LockUser(_ context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
	SELECT user_id, current_streak, best_streak, last_activity_date, total_tasks_completed, updated_at
	FROM profiles
	WHERE user_id = ?`

	var (
		profile domain.Profile
		last    sql.NullString
		updated string
	)
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.CurrentStreak,
		&profile.BestStreak,
		&last,
		&profile.TotalTasksCompleted,
		&updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	var err error
	if profile.LastActivityDate, err = parseNullDate(last); err != nil {
		return nil, err
	}
	if profile.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (user_id, current_streak, best_streak, last_activity_date, total_tasks_completed, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE
	SET current_streak = excluded.current_streak,
		best_streak = excluded.best_streak,
		last_activity_date = excluded.last_activity_date,
		total_tasks_completed = excluded.total_tasks_completed,
		updated_at = excluded.updated_at`

	now := nowString()
	if _, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.CurrentStreak,
		profile.BestStreak,
		nullDate(profile.LastActivityDate),
		profile.TotalTasksCompleted,
		now,
	); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	profile.UpdatedAt, _ = parseTime(now)
	return nil
}

func (r *profileRepository) GetPlatformStreak(ctx context.Context, userID, category string) (*domain.PlatformStreak, error) {
	const query = `
	SELECT user_id, category, current_streak, best_streak, last_activity_date, updated_at
	FROM platform_streaks
	WHERE user_id = ? AND category = ?`

	streak, err := scanPlatformStreak(r.db.QueryRowContext(ctx, query, userID, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return streak, err
}

func (r *profileRepository) SavePlatformStreak(ctx context.Context, streak *domain.PlatformStreak) error {
	if streak == nil || streak.UserID == "" || streak.Category == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO platform_streaks (user_id, category, current_streak, best_streak, last_activity_date, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, category) DO UPDATE
	SET current_streak = excluded.current_streak,
		best_streak = excluded.best_streak,
		last_activity_date = excluded.last_activity_date,
		updated_at = excluded.updated_at`

	now := nowString()
	if _, err := r.db.ExecContext(ctx, query,
		streak.UserID,
		streak.Category,
		streak.CurrentStreak,
		streak.BestStreak,
		nullDate(streak.LastActivityDate),
		now,
	); err != nil {
		return fmt.Errorf("save platform streak: %w", err)
	}
	streak.UpdatedAt, _ = parseTime(now)
	return nil
}

func (r *profileRepository) ListPlatformStreaks(ctx context.Context, userID string) ([]domain.PlatformStreak, error) {
	const query = `
	SELECT user_id, category, current_streak, best_streak, last_activity_date, updated_at
	FROM platform_streaks
	WHERE user_id = ?
	ORDER BY category`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list platform streaks: %w", err)
	}
	defer rows.Close()

	var streaks []domain.PlatformStreak
	for rows.Next() {
		streak, err := scanPlatformStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, *streak)
	}
	return streaks, rows.Err()
}

func scanPlatformStreak(row rowScanner) (*domain.PlatformStreak, error) {
	var (
		streak  domain.PlatformStreak
		last    sql.NullString
		updated string
	)
	if err := row.Scan(
		&streak.UserID,
		&streak.Category,
		&streak.CurrentStreak,
		&streak.BestStreak,
		&last,
		&updated,
	); err != nil {
		return nil, err
	}

	var err error
	if streak.LastActivityDate, err = parseNullDate(last); err != nil {
		return nil, err
	}
	if streak.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &streak, nil
}
