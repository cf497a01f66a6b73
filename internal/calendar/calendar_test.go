package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/calendar"
)

func date(s string) time.Time {
	t, err := time.Parse(calendar.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday stays", date("2025-09-08"), "2025-09-08"},
		{"wednesday", date("2025-09-10"), "2025-09-08"},
		{"sunday belongs to previous monday", date("2025-09-14"), "2025-09-08"},
		{"time of day dropped", time.Date(2025, 9, 12, 17, 45, 0, 0, time.UTC), "2025-09-08"},
		{"crosses month", date("2025-10-02"), "2025-09-29"},
		{"crosses year", date("2026-01-01"), "2025-12-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calendar.WeekStart(tt.in)
			assert.Equal(t, tt.want, calendar.Format(got))
			assert.Equal(t, time.Monday, got.Weekday())
			assert.Zero(t, got.Hour())
		})
	}
}

func TestWeekEndAndDays(t *testing.T) {
	t.Parallel()

	in := date("2025-09-11")
	assert.Equal(t, "2025-09-15", calendar.Format(calendar.WeekEnd(in)))

	days := calendar.WeekDays(in)
	require.Len(t, days, 7)
	assert.Equal(t, "2025-09-08", calendar.Format(days[0]))
	assert.Equal(t, "2025-09-14", calendar.Format(days[6]))
	assert.Equal(t, time.Sunday, days[6].Weekday())
}

func TestParseWeekStart(t *testing.T) {
	t.Parallel()

	got, err := calendar.ParseWeekStart("2025-09-08")
	require.NoError(t, err)
	assert.True(t, calendar.IsWeekStart(got))

	_, err = calendar.ParseWeekStart("2025-09-09")
	assert.ErrorContains(t, err, "not a Monday")

	_, err = calendar.ParseWeekStart("09/08/2025")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, calendar.DaysBetween(date("2025-09-08"), time.Date(2025, 9, 8, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, calendar.DaysBetween(date("2025-09-08"), date("2025-09-15")))
	assert.Equal(t, -1, calendar.DaysBetween(date("2025-03-01"), date("2025-02-28")))
	assert.Equal(t, 366, calendar.DaysBetween(date("2024-01-01"), date("2025-01-01")))
}

func TestMonthMatrix(t *testing.T) {
	t.Parallel()

	// September 2025 starts on a Monday.
	grid := calendar.MonthMatrix(date("2025-09-17"), time.Monday)
	assert.Equal(t, "2025-09-01", calendar.Format(grid[0][0]))
	assert.Equal(t, "2025-10-12", calendar.Format(grid[5][6]))

	grid = calendar.MonthMatrix(date("2025-09-17"), time.Sunday)
	assert.Equal(t, "2025-08-31", calendar.Format(grid[0][0]))
	assert.Equal(t, time.Sunday, grid[3][0].Weekday())

	for r := range grid {
		for c := 1; c < 7; c++ {
			assert.Equal(t, 1, calendar.DaysBetween(grid[r][c-1], grid[r][c]))
		}
	}
}
