package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// ordinals maps the free-text prefixes accepted by ParseLabel. Both word and
// numeric forms are accepted ("3rd", "third").
var ordinals = map[string]int{
	"1st": 1, "first": 1,
	"2nd": 2, "second": 2,
	"3rd": 3, "third": 3,
	"4th": 4, "fourth": 4,
	"5th": 5, "fifth": 5,
	"last": 5,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseLabel parses a legacy free-text pattern label like "3rd Sunday" or
// "first saturday" into its weekday and ordinal. Best effort; the structured
// Spec stays authoritative.
func ParseLabel(label string) (weekday time.Weekday, nth int, ok bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(label)))
	if len(fields) < 2 {
		return 0, 0, false
	}
	nth, ok = ordinals[fields[0]]
	if !ok {
		return 0, 0, false
	}
	weekday, ok = weekdayNames[strings.TrimRight(fields[1], "s,.")]
	if !ok {
		return 0, 0, false
	}
	return weekday, nth, true
}

// ordinalName renders 1..5 as "1st".."5th".
func ordinalName(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// Describe renders a human label for spec, e.g. "every Sunday" or
// "3rd Sunday of each month".
func Describe(spec Spec) string {
	switch s := spec.(type) {
	case Weekly:
		return "every " + s.DayOfWeek.String()
	case Monthly:
		return fmt.Sprintf("day %d of each month", s.DayOfMonth)
	case MonthlyWeekday:
		return fmt.Sprintf("%s %s of each month", ordinalName(s.Nth), s.Weekday)
	case Annual:
		return fmt.Sprintf("every year on %s %d", s.Month, s.Day)
	case Specific:
		return "selected dates"
	default:
		return "one time"
	}
}
