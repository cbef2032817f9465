package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(values ...string) []Date {
	out := make([]Date, 0, len(values))
	for _, v := range values {
		out = append(out, MustParseDate(v))
	}
	return out
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name    string
		dates   []Date
		asOf    string
		current int
		best    int
		last    string
	}{
		{name: "no activity", asOf: "2025-03-10"},
		{name: "single day today", dates: dates("2025-03-10"), asOf: "2025-03-10", current: 1, best: 1, last: "2025-03-10"},
		{name: "active yesterday keeps streak", dates: dates("2025-03-08", "2025-03-09"), asOf: "2025-03-10", current: 2, best: 2, last: "2025-03-09"},
		{name: "gap of two days resets current", dates: dates("2025-03-07", "2025-03-08"), asOf: "2025-03-10", current: 0, best: 2, last: "2025-03-08"},
		{name: "best survives a broken run", dates: dates("2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-09", "2025-03-10"), asOf: "2025-03-10", current: 2, best: 4, last: "2025-03-10"},
		{name: "duplicates and order ignored", dates: dates("2025-03-10", "2025-03-09", "2025-03-10", "2025-03-09"), asOf: "2025-03-10", current: 2, best: 2, last: "2025-03-10"},
		{name: "future dates ignored", dates: dates("2025-03-10", "2025-03-11", "2025-03-12"), asOf: "2025-03-10", current: 1, best: 1, last: "2025-03-10"},
		{name: "across month boundary", dates: dates("2025-02-27", "2025-02-28", "2025-03-01"), asOf: "2025-03-01", current: 3, best: 3, last: "2025-03-01"},
		{name: "across leap day", dates: dates("2024-02-28", "2024-02-29", "2024-03-01"), asOf: "2024-03-02", current: 3, best: 3, last: "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.dates, MustParseDate(tt.asOf))
			assert.Equal(t, tt.current, got.Current)
			assert.Equal(t, tt.best, got.Best)
			if tt.last == "" {
				assert.Nil(t, got.LastActivity)
				return
			}
			require.NotNil(t, got.LastActivity)
			assert.Equal(t, tt.last, got.LastActivity.String())
		})
	}
}

func TestComputeStreakBestNeverBelowCurrent(t *testing.T) {
	history := dates("2025-01-01", "2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06")
	for day := MustParseDate("2025-01-01"); !day.After(MustParseDate("2025-01-10")); day = day.AddDays(1) {
		got := ComputeStreak(history, day)
		assert.GreaterOrEqual(t, got.Best, got.Current, "as of %s", day)
	}
}

func TestComputeStreakDecaysWithoutWrites(t *testing.T) {
	history := dates("2025-05-05", "2025-05-06", "2025-05-07")

	assert.Equal(t, 3, ComputeStreak(history, MustParseDate("2025-05-07")).Current)
	assert.Equal(t, 3, ComputeStreak(history, MustParseDate("2025-05-08")).Current)

	lapsed := ComputeStreak(history, MustParseDate("2025-05-09"))
	assert.Equal(t, 0, lapsed.Current)
	assert.Equal(t, 3, lapsed.Best)
}

func TestProfileAdjustCompletedFloorsAtZero(t *testing.T) {
	p := Profile{UserID: "u1", TotalTasksCompleted: 1}
	p.AdjustCompleted(-1)
	assert.Equal(t, 0, p.TotalTasksCompleted)
	p.AdjustCompleted(-1)
	assert.Equal(t, 0, p.TotalTasksCompleted)
	p.AdjustCompleted(2)
	assert.Equal(t, 2, p.TotalTasksCompleted)
}

func TestApplyStreak(t *testing.T) {
	last := MustParseDate("2025-03-10")
	result := StreakResult{Current: 2, Best: 5, LastActivity: &last}

	var p Profile
	p.ApplyStreak(result)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 5, p.BestStreak)
	assert.Equal(t, &last, p.LastActivityDate)

	var ps PlatformStreak
	ps.ApplyStreak(result)
	assert.Equal(t, 2, ps.CurrentStreak)
	assert.Equal(t, 5, ps.BestStreak)
}
