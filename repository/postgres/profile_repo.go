package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

type profileRepository struct {
	db querier
}

// NewProfileRepository returns a Postgres-backed ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{db: pool}
}

// LockUser takes a transaction-scoped advisory lock keyed by the user id.
// Transitions on different tasks of one user lock different task rows, so the profile needs its own lock.
func (r *profileRepository) LockUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return err
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
	SELECT user_id, current_streak, best_streak, last_activity_date, total_tasks_completed, updated_at
	FROM profiles
	WHERE user_id = $1
	`
	var (
		profile domain.Profile
		last    *time.Time
	)
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.CurrentStreak,
		&profile.BestStreak,
		&last,
		&profile.TotalTasksCompleted,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	profile.LastActivityDate = datePtr(last)
	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (user_id, current_streak, best_streak, last_activity_date, total_tasks_completed, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET current_streak = EXCLUDED.current_streak,
		best_streak = EXCLUDED.best_streak,
		last_activity_date = EXCLUDED.last_activity_date,
		total_tasks_completed = EXCLUDED.total_tasks_completed,
		updated_at = NOW()
	RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		profile.UserID,
		profile.CurrentStreak,
		profile.BestStreak,
		nullDate(profile.LastActivityDate),
		profile.TotalTasksCompleted,
	).Scan(&profile.UpdatedAt)
}

func (r *profileRepository) GetPlatformStreak(ctx context.Context, userID, category string) (*domain.PlatformStreak, error) {
	const query = `
	SELECT user_id, category, current_streak, best_streak, last_activity_date, updated_at
	FROM platform_streaks
	WHERE user_id = $1 AND category = $2
	`
	streak, err := scanPlatformStreak(r.db.QueryRow(ctx, query, userID, category))
	if errors.Is(err, pgx.ErrNoRows) {
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
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id, category) DO UPDATE
	SET current_streak = EXCLUDED.current_streak,
		best_streak = EXCLUDED.best_streak,
		last_activity_date = EXCLUDED.last_activity_date,
		updated_at = NOW()
	RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		streak.UserID,
		streak.Category,
		streak.CurrentStreak,
		streak.BestStreak,
		nullDate(streak.LastActivityDate),
	).Scan(&streak.UpdatedAt)
}

func (r *profileRepository) ListPlatformStreaks(ctx context.Context, userID string) ([]domain.PlatformStreak, error) {
	const query = `
	SELECT user_id, category, current_streak, best_streak, last_activity_date, updated_at
	FROM platform_streaks
	WHERE user_id = $1
	ORDER BY category
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
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
		streak domain.PlatformStreak
		last   *time.Time
	)
	if err := row.Scan(
		&streak.UserID,
		&streak.Category,
		&streak.CurrentStreak,
		&streak.BestStreak,
		&last,
		&streak.UpdatedAt,
	); err != nil {
		return nil, err
	}
	streak.LastActivityDate = datePtr(last)
	return &streak, nil
}
