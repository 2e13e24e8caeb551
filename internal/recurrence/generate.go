package recurrence

import (
	"sort"
	"time"
)

// Generate expands spec into the finite, ordered list of occurrences anchored
// at anchor. All variants except Specific preserve the anchor's time of day.
// Day-of-month overflow clamps to the last valid day; a month without an Nth
// weekday is skipped rather than shifted.
func Generate(anchor time.Time, spec Spec) []time.Time {
	switch s := spec.(type) {
	case Weekly:
		return generateWeekly(anchor, s)
	case Monthly:
		return generateMonthly(anchor, s)
	case MonthlyWeekday:
		return generateMonthlyWeekday(anchor, s)
	case Annual:
		return generateAnnual(anchor, s)
	case Specific:
		return generateSpecific(s)
	default: // Single or nil
		return []time.Time{anchor}
	}
}

// Next returns the first occurrence at or after t, if any.
func Next(anchor time.Time, spec Spec, t time.Time) (time.Time, bool) {
	for _, occ := range Generate(anchor, spec) {
		if !occ.Before(t) {
			return occ, true
		}
	}
	return time.Time{}, false
}

func generateWeekly(anchor time.Time, s Weekly) []time.Time {
	cursor := anchor
	for cursor.Weekday() != s.DayOfWeek {
		cursor = cursor.AddDate(0, 0, 1)
	}
	out := make([]time.Time, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		out = append(out, cursor.AddDate(0, 0, 7*i))
	}
	return out
}

func generateMonthly(anchor time.Time, s Monthly) []time.Time {
	out := make([]time.Time, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		// Normalize year/month with calendar arithmetic, then clamp the day.
		first := time.Date(anchor.Year(), anchor.Month()+time.Month(i), 1, 0, 0, 0, 0, anchor.Location())
		day := min(s.DayOfMonth, daysInMonth(first.Year(), first.Month()))
		out = append(out, atTimeOfDay(first.Year(), first.Month(), day, anchor))
	}
	return out
}

func generateMonthlyWeekday(anchor time.Time, s MonthlyWeekday) []time.Time {
	out := make([]time.Time, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		first := time.Date(anchor.Year(), anchor.Month()+time.Month(i), 1, 0, 0, 0, 0, anchor.Location())
		offset := (int(s.Weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (s.Nth-1)*7
		if day > daysInMonth(first.Year(), first.Month()) {
			continue
		}
		out = append(out, atTimeOfDay(first.Year(), first.Month(), day, anchor))
	}
	return out
}

func generateAnnual(anchor time.Time, s Annual) []time.Time {
	out := make([]time.Time, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		year := anchor.Year() + i
		day := min(s.Day, daysInMonth(year, s.Month))
		out = append(out, atTimeOfDay(year, s.Month, day, anchor))
	}
	return out
}

func generateSpecific(s Specific) []time.Time {
	out := make([]time.Time, len(s.Dates))
	copy(out, s.Dates)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// daysInMonth returns the number of days in the given year-month. Day 0 of
// the following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func atTimeOfDay(year int, month time.Month, day int, anchor time.Time) time.Time {
	return time.Date(year, month, day, anchor.Hour(), anchor.Minute(), 0, 0, anchor.Location())
}
