package repository

import (
	"context"

	"github.com/fastygo/habitflow/domain"
)

// UserRepository stores onboarded accounts.
//
// Upsert is a merge: an empty email or display name keeps the stored value and
// metadata keys are added to the stored map rather than replacing it.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}
