package usecase

import (
	"context"
	"errors"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

// SyncStreaks recomputes the profile streak, and the category streak when category is set,
// from the activity history visible through stores. completedDelta adjusts the completion counter.
func SyncStreaks(ctx context.Context, stores repository.Stores, userID, category string, asOf domain.Date, completedDelta int) (*domain.Profile, error) {
	if err := stores.Profiles.LockUser(ctx, userID); err != nil {
		return nil, err
	}

	dates, err := stores.Tasks.ListActivityDates(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	profile, err := stores.Profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = &domain.Profile{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	profile.ApplyStreak(domain.ComputeStreak(dates, asOf))
	profile.AdjustCompleted(completedDelta)
	if err := stores.Profiles.Save(ctx, profile); err != nil {
		return nil, err
	}

	if category == "" {
		return profile, nil
	}
	if err := syncPlatformStreak(ctx, stores, userID, category, asOf); err != nil {
		return nil, err
	}
	return profile, nil
}

func syncPlatformStreak(ctx context.Context, stores repository.Stores, userID, category string, asOf domain.Date) error {
	dates, err := stores.Tasks.ListActivityDates(ctx, userID, category)
	if err != nil {
		return err
	}
	streak, err := stores.Profiles.GetPlatformStreak(ctx, userID, category)
	if err != nil {
		return err
	}

	result := domain.ComputeStreak(dates, asOf)
	if streak == nil {
		if result.Best == 0 {
			return nil
		}
		streak = &domain.PlatformStreak{UserID: userID, Category: category}
	}
	streak.ApplyStreak(result)
	return stores.Profiles.SavePlatformStreak(ctx, streak)
}
