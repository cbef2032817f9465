package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fastygo/habitflow/domain"
)

type userRepository struct {
	db querier
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, email, display_name, status, metadata, created_at, updated_at FROM users WHERE id = ?`

	var (
		user             domain.User
		metadata         string
		created, updated string
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.Status, &metadata, &created, &updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var err error
	if user.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &user.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of user %s: %w", user.ID, err)
		}
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	metadata := ""
	if len(user.Metadata) > 0 {
		if b, err := json.Marshal(user.Metadata); err == nil {
			metadata = string(b)
		}
	}

	const query = `
	INSERT INTO users (id, email, display_name, status, metadata, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET email = CASE WHEN excluded.email = '' THEN users.email ELSE excluded.email END,
		display_name = CASE WHEN excluded.display_name = '' THEN users.display_name ELSE excluded.display_name END,
		status = excluded.status,
		metadata = CASE
			WHEN excluded.metadata = '' THEN users.metadata
			WHEN users.metadata = '' THEN excluded.metadata
			ELSE json_patch(users.metadata, excluded.metadata)
		END,
		updated_at = excluded.updated_at`

	now := nowString()
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.Status, metadata, now, now,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}
