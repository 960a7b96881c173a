package mealplan

import (
	"fmt"
	"strings"
	"time"

	"github.com/ecoeats/mealplanner/pkg/enums"
)

// WeekKeyLayout is how week starts travel on the wire: the UTC instant of
// local Monday midnight with millisecond precision.
const WeekKeyLayout = "2006-01-02T15:04:05.000Z"

// WeekStart returns Monday 00:00 of t's week in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// WeekKey formats the week containing t as its wire key.
func WeekKey(t time.Time) string {
	return WeekStart(t).UTC().Format(WeekKeyLayout)
}

// ParseWeekKey reads a wire key, or any RFC 3339 timestamp or plain date, and
// returns the local week start it belongs to.
func ParseWeekKey(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(value)
	layouts := []string{WeekKeyLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		var (
			t   time.Time
			err error
		)
		if layout == "2006-01-02" || layout == "2006-01-02T15:04:05" {
			t, err = time.ParseInLocation(layout, trimmed, loc)
		} else {
			t, err = time.Parse(layout, trimmed)
		}
		if err == nil {
			return WeekStart(t.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid week start %q", value)
}

// NextWeek and PrevWeek step by calendar weeks, staying on local midnight
// across daylight-saving changes.
func NextWeek(weekStart time.Time) time.Time {
	return WeekStart(weekStart.AddDate(0, 0, 7))
}

func PrevWeek(weekStart time.Time) time.Time {
	return WeekStart(weekStart.AddDate(0, 0, -7))
}

// DateForDay returns the calendar date of day within the week.
func DateForDay(weekStart time.Time, day enums.Day) time.Time {
	idx := day.Index()
	if idx < 0 {
		idx = 0
	}
	return WeekStart(weekStart).AddDate(0, 0, idx)
}

// FormatWeekRange renders "Week of Jan 6 - Jan 12".
func FormatWeekRange(weekStart time.Time) string {
	start := WeekStart(weekStart)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("Week of %s - %s", start.Format("Jan 2"), end.Format("Jan 2"))
}

// FormatWeekLabel names the week relative to now's week.
func FormatWeekLabel(weekStart, now time.Time) string {
	rng := FormatWeekRange(weekStart)
	switch weeksBetween(WeekStart(now.In(weekStart.Location())), WeekStart(weekStart)) {
	case 0:
		return "This Week (" + rng + ")"
	case 1:
		return "Next Week (" + rng + ")"
	case -1:
		return "Last Week (" + rng + ")"
	default:
		return rng
	}
}

func weeksBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(toDay.Sub(fromDay).Hours() / 24)
	if days >= 0 {
		return days / 7
	}
	return -((-days + 6) / 7)
}
