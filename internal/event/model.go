package event

import (
	"time"

	"github.com/google/uuid"
)

// Event statuses.
const (
	StatusScheduled = "scheduled"
	StatusDone      = "done"
)

// Event represents a row in the events table.
type Event struct {
	ID               uuid.UUID  `json:"id"`
	FamilyID         uuid.UUID  `json:"familyId"`
	ChildID          *uuid.UUID `json:"childId"`
	SubjectID        *uuid.UUID `json:"subjectId"`
	Title            string     `json:"title"`
	StartTS          time.Time  `json:"startTs"`
	EndTS            time.Time  `json:"endTs"`
	Status           string     `json:"status"`
	RescheduleOrigin *string    `json:"rescheduleOrigin"`
	RescheduleReason *string    `json:"rescheduleReason"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DurationMinutes returns the whole minutes between start and end.
func (e *Event) DurationMinutes() int {
	return int(e.EndTS.Sub(e.StartTS) / time.Minute)
}

// Attendance represents a row in attendance_records. There is at most one per event.
type Attendance struct {
	ID        uuid.UUID  `json:"id"`
	FamilyID  uuid.UUID  `json:"familyId"`
	ChildID   *uuid.UUID `json:"childId"`
	EventID   uuid.UUID  `json:"eventId"`
	DayDate   time.Time  `json:"dayDate"`
	Minutes   int        `json:"minutes"`
	Status    string     `json:"status"`
	Note      *string    `json:"note"`
	CreatedBy uuid.UUID  `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Outcome represents a row in event_outcomes. There is at most one per event.
type Outcome struct {
	ID        uuid.UUID  `json:"id"`
	FamilyID  uuid.UUID  `json:"familyId"`
	ChildID   *uuid.UUID `json:"childId"`
	SubjectID *uuid.UUID `json:"subjectId"`
	EventID   uuid.UUID  `json:"eventId"`
	Rating    *int       `json:"rating"`
	Grade     *string    `json:"grade"`
	Note      *string    `json:"note"`
	Strengths []string   `json:"strengths"`
	Struggles []string   `json:"struggles"`
	CreatedBy uuid.UUID  `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ProgressRow is one per-subject row of the child_progress view.
type ProgressRow struct {
	ChildID                uuid.UUID
	SubjectID              *uuid.UUID
	CompletedEvents        int
	TotalEvents            int
	TotalAttendanceMinutes int
	AvgRating              *float64
	LatestGrade            *string
}
