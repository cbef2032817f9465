package domain

import "time"

// WeekStartFor returns the Monday of the ISO week containing d.
// Sunday belongs to the week that started six days earlier.
func WeekStartFor(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// ResolveWeek returns the Monday offset weeks away from the week containing ref.
func ResolveWeek(offset int, ref Date) Date {
	return WeekStartFor(ref).AddDays(7 * offset)
}

// WeekEndFor returns the Sunday closing the week that starts at weekStart.
func WeekEndFor(weekStart Date) Date {
	return WeekStartFor(weekStart).AddDays(6)
}

// IsWeekStart reports whether d is a Monday.
func IsWeekStart(d Date) bool {
	return !d.IsZero() && d.Weekday() == time.Monday
}
