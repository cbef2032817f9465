package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

const userColumns = `id, email, display_name, status, metadata, created_at, updated_at`

type userRepository struct {
	db querier
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{db: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

// Upsert merges the onboarding payload into the stored account and reloads it.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, email, display_name, status, metadata)
	VALUES ($1, $2, $3, $4, COALESCE($5::jsonb, '{}'::jsonb))
	ON CONFLICT (id) DO UPDATE
	SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
		display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
		status = EXCLUDED.status,
		metadata = COALESCE(users.metadata, '{}'::jsonb) || EXCLUDED.metadata,
		updated_at = NOW()
	RETURNING ` + userColumns

	stored, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Status,
		marshalMap(user.Metadata),
	))
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		metadata []byte
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.Status, &metadata, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &user.Metadata); err != nil {
			return nil, err
		}
	}
	return &user, nil
}
