// Package recurrence expands a compact recurrence specification into concrete
// calendar occurrences. It is pure: no I/O, no clock reads.
package recurrence

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the recurrence variants on the wire and in storage.
type Kind string

const (
	KindSingle         Kind = "single"
	KindWeekly         Kind = "weekly"
	KindMonthly        Kind = "monthly"
	KindMonthlyWeekday Kind = "monthly_weekday"
	KindAnnual         Kind = "annual"
	KindSpecific       Kind = "specific"
)

// Spec describes how an event repeats. Exactly one variant applies; the type
// is sealed so invalid field combinations are unrepresentable.
type Spec interface {
	Kind() Kind
}

// Single is a one-off: the anchor timestamp is the only occurrence.
type Single struct{}

func (Single) Kind() Kind { return KindSingle }

// Weekly repeats on a fixed weekday, 7 days apart, Count times, starting from
// the first matching weekday on or after the anchor date.
type Weekly struct {
	DayOfWeek time.Weekday
	Count     int
}

func (Weekly) Kind() Kind { return KindWeekly }

// Monthly repeats once per month on DayOfMonth, clamped to the last valid day
// of short months.
type Monthly struct {
	DayOfMonth int
	Count      int
}

func (Monthly) Kind() Kind { return KindMonthly }

// MonthlyWeekday repeats on the Nth occurrence of Weekday within each month
// (e.g. 3rd Sunday). Months with fewer than Nth such weekdays yield nothing.
type MonthlyWeekday struct {
	Weekday time.Weekday
	Nth     int
	Count   int
}

func (MonthlyWeekday) Kind() Kind { return KindMonthlyWeekday }

// Annual repeats once per year on Month/Day, day clamped to month length.
type Annual struct {
	Month time.Month
	Day   int
	Count int
}

func (Annual) Kind() Kind { return KindAnnual }

// Specific is an explicit, caller-supplied date list. No generation happens;
// the dates are returned sorted ascending.
type Specific struct {
	Dates []time.Time
}

func (Specific) Kind() Kind { return KindSpecific }

// Rule wraps a Spec for JSON transport and storage. The wire form is a tagged
// union: {"type":"weekly","day_of_week":0,"count":4}.
type Rule struct {
	Spec Spec
}

// ruleJSON is the wire envelope for all variants. Pointer fields are omitted
// when they do not apply to the encoded variant.
type ruleJSON struct {
	Type       Kind        `json:"type"`
	DayOfWeek  *int        `json:"day_of_week,omitempty"`
	DayOfMonth *int        `json:"day_of_month,omitempty"`
	Weekday    *int        `json:"weekday,omitempty"`
	Nth        *int        `json:"nth,omitempty"`
	Month      *int        `json:"month,omitempty"`
	Day        *int        `json:"day,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Dates      []time.Time `json:"dates,omitempty"`

	// Pattern is the legacy free-text form ("3rd Sunday"). Read-only: accepted
	// on decode when no type is given, never written back.
	Pattern string `json:"pattern,omitempty"`
}

// legacyPatternCount bounds rules decoded from legacy pattern labels, which
// carried no occurrence count of their own.
const legacyPatternCount = 12

func intPtr(v int) *int { return &v }

func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Spec == nil {
		return json.Marshal(ruleJSON{Type: KindSingle})
	}
	env := ruleJSON{Type: r.Spec.Kind()}
	switch s := r.Spec.(type) {
	case Single:
	case Weekly:
		env.DayOfWeek = intPtr(int(s.DayOfWeek))
		env.Count = intPtr(s.Count)
	case Monthly:
		env.DayOfMonth = intPtr(s.DayOfMonth)
		env.Count = intPtr(s.Count)
	case MonthlyWeekday:
		env.Weekday = intPtr(int(s.Weekday))
		env.Nth = intPtr(s.Nth)
		env.Count = intPtr(s.Count)
	case Annual:
		env.Month = intPtr(int(s.Month))
		env.Day = intPtr(s.Day)
		env.Count = intPtr(s.Count)
	case Specific:
		env.Dates = s.Dates
	default:
		return nil, fmt.Errorf("unknown recurrence spec %T", r.Spec)
	}
	return json.Marshal(env)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var env ruleJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	switch env.Type {
	case KindSingle, "":
		if env.Type == "" && env.Pattern != "" {
			weekday, nth, ok := ParseLabel(env.Pattern)
			if !ok {
				return fmt.Errorf("unknown recurrence pattern %q", env.Pattern)
			}
			countValue := legacyPatternCount
			if env.Count != nil {
				countValue = *env.Count
			}
			r.Spec = MonthlyWeekday{Weekday: weekday, Nth: nth, Count: countValue}
			return nil
		}
		r.Spec = Single{}
	case KindWeekly:
		r.Spec = Weekly{DayOfWeek: time.Weekday(deref(env.DayOfWeek)), Count: deref(env.Count)}
	case KindMonthly:
		r.Spec = Monthly{DayOfMonth: deref(env.DayOfMonth), Count: deref(env.Count)}
	case KindMonthlyWeekday:
		r.Spec = MonthlyWeekday{Weekday: time.Weekday(deref(env.Weekday)), Nth: deref(env.Nth), Count: deref(env.Count)}
	case KindAnnual:
		r.Spec = Annual{Month: time.Month(deref(env.Month)), Day: deref(env.Day), Count: deref(env.Count)}
	case KindSpecific:
		r.Spec = Specific{Dates: env.Dates}
	default:
		return fmt.Errorf("unknown recurrence type %q", env.Type)
	}
	return nil
}

// Validate checks the structural validity of the wrapped spec and returns
// error messages for the caller-facing contract. The generator itself does
// not validate; callers are expected to reject invalid specs up front.
func (r Rule) Validate() []string {
	var errs []string
	switch s := r.Spec.(type) {
	case nil:
		errs = append(errs, "recurrence is required")
	case Single:
	case Weekly:
		if s.DayOfWeek < time.Sunday || s.DayOfWeek > time.Saturday {
			errs = append(errs, "recurrence day_of_week must be between 0 and 6")
		}
		if s.Count < 1 {
			errs = append(errs, "recurrence count must be at least 1")
		}
	case Monthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			errs = append(errs, "recurrence day_of_month must be between 1 and 31")
		}
		if s.Count < 1 {
			errs = append(errs, "recurrence count must be at least 1")
		}
	case MonthlyWeekday:
		if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
			errs = append(errs, "recurrence weekday must be between 0 and 6")
		}
		if s.Nth < 1 || s.Nth > 5 {
			errs = append(errs, "recurrence nth must be between 1 and 5")
		}
		if s.Count < 1 {
			errs = append(errs, "recurrence count must be at least 1")
		}
	case Annual:
		if s.Month < time.January || s.Month > time.December {
			errs = append(errs, "recurrence month must be between 1 and 12")
		}
		if s.Day < 1 || s.Day > 31 {
			errs = append(errs, "recurrence day must be between 1 and 31")
		}
		if s.Count < 1 {
			errs = append(errs, "recurrence count must be at least 1")
		}
	case Specific:
		if len(s.Dates) == 0 {
			errs = append(errs, "recurrence dates must not be empty")
		}
	}
	return errs
}
