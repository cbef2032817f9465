package repository

import (
	"context"

	"github.com/fastygo/habitflow/domain"
)

// ProfileRepository persists per-user and per-category streak aggregates.
type ProfileRepository interface {
	// LockUser serialises writers of one user's aggregates until the surrounding transaction ends.
	// Callers take it before reading anything the aggregates are derived from.
	LockUser(ctx context.Context, userID string) error
	// Get returns domain.ErrProfileNotFound when the user was never onboarded.
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
	// GetPlatformStreak returns nil and no error when the category has no streak yet.
	GetPlatformStreak(ctx context.Context, userID, category string) (*domain.PlatformStreak, error)
	SavePlatformStreak(ctx context.Context, streak *domain.PlatformStreak) error
	ListPlatformStreaks(ctx context.Context, userID string) ([]domain.PlatformStreak, error)
}
