// Package calendar holds the Monday-based week arithmetic shared by the
// planner, the pacing views and the year grid.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, -weekdayIndex(t))
}

// WeekEnd returns the exclusive end of t's week (the following Monday).
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// WeekDays returns the seven dates of t's week, Monday first.
func WeekDays(t time.Time) []time.Time {
	start := WeekStart(t)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// IsWeekStart reports whether t falls on a Monday.
func IsWeekStart(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseWeekStart parses s and requires it to be a Monday.
func ParseWeekStart(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if !IsWeekStart(t) {
		return time.Time{}, fmt.Errorf("week start %s is a %s, not a Monday", s, t.Weekday())
	}
	return t, nil
}

// Format renders t in DateLayout.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole calendar days from a to b, ignoring the time
// of day. It is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// MonthMatrix returns the 6x7 grid of dates used by month views. The first
// row starts on the weekStartsOn day on or before the 1st of anchor's month.
func MonthMatrix(anchor time.Time, weekStartsOn time.Weekday) [6][7]time.Time {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	offset := (int(first.Weekday()) - int(weekStartsOn) + 7) % 7
	start := first.AddDate(0, 0, -offset)

	var grid [6][7]time.Time
	for r := 0; r < 6; r++ {
		for c := 0; c < 7; c++ {
			grid[r][c] = start.AddDate(0, 0, r*7+c)
		}
	}
	return grid
}
