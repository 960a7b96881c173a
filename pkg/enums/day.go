package enums

import (
	"fmt"
	"strings"
)

// Day names one column of the weekly grid, Monday first.
type Day string

const (
	DayMonday    Day = "monday"
	DayTuesday   Day = "tuesday"
	DayWednesday Day = "wednesday"
	DayThursday  Day = "thursday"
	DayFriday    Day = "friday"
	DaySaturday  Day = "saturday"
	DaySunday    Day = "sunday"
)

// Days lists the grid columns in calendar order starting on Monday.
var Days = []Day{
	DayMonday,
	DayTuesday,
	DayWednesday,
	DayThursday,
	DayFriday,
	DaySaturday,
	DaySunday,
}

// String implements fmt.Stringer.
func (d Day) String() string {
	return string(d)
}

// Index returns the zero-based offset from Monday, or -1 when unknown.
func (d Day) Index() int {
	for i, candidate := range Days {
		if candidate == d {
			return i
		}
	}
	return -1
}

// IsValid reports whether the value is a known Day.
func (d Day) IsValid() bool {
	return d.Index() >= 0
}

// ParseDay converts raw input into a Day. Matching ignores case and accepts
// the three-letter abbreviations shown on the day tabs.
func ParseDay(value string) (Day, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range Days {
		if string(candidate) == normalized || (len(normalized) == 3 && strings.HasPrefix(string(candidate), normalized)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid day %q", value)
}
