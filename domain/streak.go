package domain

import (
	"sort"
	"time"
)

// StreakResult is the outcome of a streak computation.
type StreakResult struct {
	Current      int   `json:"current"`
	Best         int   `json:"best"`
	LastActivity *Date `json:"last_activity_date,omitempty"`
}

// ComputeStreak derives the current and best streak from activity dates as of a given day.
//
// A day without activity yet does not break the streak: when asOf itself is
// inactive the current run is counted from the day before. Dates after asOf
// are ignored.
func ComputeStreak(dates []Date, asOf Date) StreakResult {
	days := uniqueSortedDates(dates, asOf)
	if len(days) == 0 {
		return StreakResult{}
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].DaysSince(days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	last := days[len(days)-1]
	current := 0
	if gap := asOf.DaysSince(last); gap <= 1 {
		current = 1
		for i := len(days) - 1; i > 0 && days[i].DaysSince(days[i-1]) == 1; i-- {
			current++
		}
	}

	return StreakResult{Current: current, Best: best, LastActivity: &last}
}

func uniqueSortedDates(dates []Date, asOf Date) []Date {
	seen := make(map[Date]struct{}, len(dates))
	out := make([]Date, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() || d.After(asOf) {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Profile is the per-user streak and completion rollup.
type Profile struct {
	UserID              string    `json:"user_id"`
	CurrentStreak       int       `json:"current_streak"`
	BestStreak          int       `json:"best_streak"`
	LastActivityDate    *Date     `json:"last_activity_date,omitempty"`
	TotalTasksCompleted int       `json:"total_tasks_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ApplyStreak copies a computed streak onto the profile.
func (p *Profile) ApplyStreak(result StreakResult) {
	p.CurrentStreak = result.Current
	p.BestStreak = result.Best
	p.LastActivityDate = result.LastActivity
}

// AdjustCompleted changes the completion counter, never below zero.
func (p *Profile) AdjustCompleted(delta int) {
	p.TotalTasksCompleted += delta
	if p.TotalTasksCompleted < 0 {
		p.TotalTasksCompleted = 0
	}
}

// PlatformStreak mirrors Profile for a single category.
type PlatformStreak struct {
	UserID           string    `json:"user_id"`
	Category         string    `json:"category"`
	CurrentStreak    int       `json:"current_streak"`
	BestStreak       int       `json:"best_streak"`
	LastActivityDate *Date     `json:"last_activity_date,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *PlatformStreak) ApplyStreak(result StreakResult) {
	p.CurrentStreak = result.Current
	p.BestStreak = result.Best
	p.LastActivityDate = result.LastActivity
}
