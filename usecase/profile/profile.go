package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
	"github.com/fastygo/habitflow/usecase"
)

// ErrUserDeactivated rejects onboarding of an account that was switched off.
var ErrUserDeactivated = domain.NewError(domain.ErrCodeUnauthorized, "user is deactivated")

// Dependencies wires the profile use case. Cache is optional.
type Dependencies struct {
	Users      repository.UserRepository
	Profiles   repository.ProfileRepository
	Tasks      repository.TaskRepository
	Transactor repository.Transactor
	Cache      repository.StreakCache
	Clock      domain.Clock
	Calendar   domain.Calendar
}

type UseCase struct {
	deps   Dependencies
	logger *zap.Logger
}

func New(deps Dependencies, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = domain.RealClock{}
	}
	return &UseCase{
		deps:   deps,
		logger: logger,
	}
}

// Onboard registers the user and creates an empty aggregate if none exists yet.
// Calling it again updates the account details and keeps the stored streaks.
func (uc *UseCase) Onboard(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.deps.Users.GetByID(ctx, user.ID)
	switch {
	case err == nil:
		if !existing.IsActive() {
			return nil, ErrUserDeactivated
		}
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.NewDependencyError("failed to load user", err)
	}

	user.Normalize()
	if err := uc.deps.Users.Upsert(ctx, user); err != nil {
		return nil, domain.NewDependencyError("failed to save user", err)
	}

	profile, err := uc.deps.Profiles.Get(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, domain.NewDependencyError("failed to load profile", err)
	}

	profile = &domain.Profile{UserID: user.ID}
	if err := uc.deps.Profiles.Save(ctx, profile); err != nil {
		return nil, domain.NewDependencyError("failed to create profile", err)
	}
	uc.logger.Info("user onboarded", zap.String("user_id", user.ID))
	return profile, nil
}

// GetProfile returns the stored aggregate as last written by the lifecycle controller.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return uc.deps.Profiles.Get(ctx, userID)
}

// GetStreakSummary computes streaks from the activity history as of today.
// Decay after a missed day shows up here without any stored aggregate being rewritten.
func (uc *UseCase) GetStreakSummary(ctx context.Context, userID string) (*repository.StreakSummary, error) {
	now := uc.deps.Clock.Now()
	today := uc.deps.Calendar.DateOf(now)

	cacheable := uc.deps.Cache != nil
	var generation int64
	if cacheable {
		cached, err := uc.deps.Cache.Get(ctx, userID, today)
		if err != nil {
			uc.logger.Warn("streak cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
		if generation, err = uc.deps.Cache.Generation(ctx, userID); err != nil {
			uc.logger.Warn("streak cache generation read failed", zap.String("user_id", userID), zap.Error(err))
			cacheable = false
		}
	}

	dates, err := uc.deps.Tasks.ListActivityDates(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	total := 0
	stored, err := uc.deps.Profiles.Get(ctx, userID)
	switch {
	case err == nil:
		total = stored.TotalTasksCompleted
	case errors.Is(err, domain.ErrProfileNotFound):
	default:
		return nil, err
	}

	result := domain.ComputeStreak(dates, today)
	summary := &repository.StreakSummary{
		UserID:              userID,
		AsOf:                today,
		CurrentStreak:       result.Current,
		BestStreak:          result.Best,
		LastActivityDate:    result.LastActivity,
		ActiveToday:         result.LastActivity != nil && *result.LastActivity == today,
		TotalTasksCompleted: total,
		Platforms:           []domain.PlatformStreak{},
	}

	platforms, err := uc.deps.Profiles.ListPlatformStreaks(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range platforms {
		categoryDates, err := uc.deps.Tasks.ListActivityDates(ctx, userID, p.Category)
		if err != nil {
			return nil, err
		}
		p.ApplyStreak(domain.ComputeStreak(categoryDates, today))
		summary.Platforms = append(summary.Platforms, p)
	}

	if cacheable {
		ttl := uc.deps.Calendar.EndOfDay(now).Sub(now)
		if err := uc.deps.Cache.Set(ctx, summary, generation, ttl); err != nil {
			uc.logger.Warn("streak cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return summary, nil
}

// Recompute rebuilds the stored aggregates of a user from task history.
func (uc *UseCase) Recompute(ctx context.Context, userID string) (*domain.Profile, error) {
	today := uc.deps.Calendar.Today(uc.deps.Clock)

	var profile *domain.Profile
	err := uc.deps.Transactor.WithinTransaction(ctx, func(ctx context.Context, stores repository.Stores) error {
		if err := stores.Profiles.LockUser(ctx, userID); err != nil {
			return err
		}
		completed, err := stores.Tasks.CountCompleted(ctx, userID)
		if err != nil {
			return err
		}
		current, err := stores.Profiles.Get(ctx, userID)
		delta := completed
		if err == nil {
			delta = completed - current.TotalTasksCompleted
		} else if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}

		if profile, err = usecase.SyncStreaks(ctx, stores, userID, "", today, delta); err != nil {
			return err
		}

		platforms, err := stores.Profiles.ListPlatformStreaks(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range platforms {
			dates, err := stores.Tasks.ListActivityDates(ctx, userID, p.Category)
			if err != nil {
				return err
			}
			p.ApplyStreak(domain.ComputeStreak(dates, today))
			if err := stores.Profiles.SavePlatformStreak(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewDependencyError("failed to recompute streaks", err)
	}

	if uc.deps.Cache != nil {
		if err := uc.deps.Cache.Invalidate(ctx, userID); err != nil {
			uc.logger.Warn("failed to invalidate streak cache", zap.String("user_id", userID), zap.Error(err))
		}
	}
	uc.logger.Info("streaks recomputed",
		zap.String("user_id", userID),
		zap.Int("current_streak", profile.CurrentStreak),
		zap.Int("best_streak", profile.BestStreak))
	return profile, nil
}
