// Package child builds the dashboards over a family's children: the child
// account's own overview, the tutor overview of scoped children, and the
// per-subject progress rows.
package child

import (
	"math"
	"time"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/event"
)

// Progress aggregates the child_progress rows across subjects.
type Progress struct {
	CompletedEvents        int      `json:"completedEvents"`
	TotalEvents            int      `json:"totalEvents"`
	TotalAttendanceMinutes int      `json:"totalAttendanceMinutes"`
	Hours                  float64  `json:"hours"`
	AvgRating              *float64 `json:"avgRating"`
	LatestGrade            *string  `json:"latestGrade"`
}

// Streak counts consecutive attended days ending today. days must be sorted
// most recent first; repeated dates are counted once. A streak that does
// not include today is zero.
func Streak(days []time.Time, today time.Time) int {
	streak := 0
	var last time.Time
	for i, d := range days {
		if i > 0 && calendar.DaysBetween(d, last) == 0 {
			continue
		}
		if calendar.DaysBetween(d, today) != streak {
			break
		}
		streak++
		last = d
	}
	return streak
}

// Summarize totals the per-subject rows. Ratings are averaged over subjects
// that have one; the latest grade is the first non-empty one.
func Summarize(rows []event.ProgressRow) *Progress {
	if len(rows) == 0 {
		return nil
	}

	p := &Progress{}
	var ratingSum float64
	var ratings int
	for _, r := range rows {
		p.CompletedEvents += r.CompletedEvents
		p.TotalEvents += r.TotalEvents
		p.TotalAttendanceMinutes += r.TotalAttendanceMinutes
		if r.AvgRating != nil && *r.AvgRating != 0 {
			ratingSum += *r.AvgRating
			ratings++
		}
		if p.LatestGrade == nil && r.LatestGrade != nil && *r.LatestGrade != "" {
			p.LatestGrade = r.LatestGrade
		}
	}

	p.Hours = round1(float64(p.TotalAttendanceMinutes) / 60)
	if ratings > 0 {
		avg := round1(ratingSum / float64(ratings))
		p.AvgRating = &avg
	}
	return p
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
