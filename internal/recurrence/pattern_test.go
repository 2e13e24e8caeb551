package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label       string
		wantWeekday time.Weekday
		wantNth     int
		wantOK      bool
	}{
		{"3rd Sunday", time.Sunday, 3, true},
		{"first saturday", time.Saturday, 1, true},
		{"  Second  Tuesday  ", time.Tuesday, 2, true},
		{"last friday", time.Friday, 5, true},
		{"4th Wednesdays", time.Wednesday, 4, true},
		{"sunday", 0, 0, false},
		{"3rd", 0, 0, false},
		{"every week", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			weekday, nth, ok := ParseLabel(tt.label)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantWeekday, weekday)
				assert.Equal(t, tt.wantNth, nth)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "one time", Describe(Single{}))
	assert.Equal(t, "every Sunday", Describe(Weekly{DayOfWeek: time.Sunday, Count: 4}))
	assert.Equal(t, "day 15 of each month", Describe(Monthly{DayOfMonth: 15, Count: 2}))
	assert.Equal(t, "3rd Sunday of each month", Describe(MonthlyWeekday{Weekday: time.Sunday, Nth: 3, Count: 6}))
	assert.Equal(t, "every year on July 4", Describe(Annual{Month: time.July, Day: 4, Count: 2}))
	assert.Equal(t, "selected dates", Describe(Specific{}))
}
