package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when an event record is not found.
var ErrEventNotFound = errors.New("event not found")

// Repository provides operations on events and the tables hanging off them.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	MarkDone(ctx context.Context, id uuid.UUID) (*Event, error)
	Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time, origin, reason string) (*Event, error)
	ListForChildBetween(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]Event, error)

	UpsertAttendance(ctx context.Context, a *Attendance) error
	ListAttendanceDays(ctx context.Context, childID uuid.UUID, limit int) ([]time.Time, error)
	UpsertOutcome(ctx context.Context, o *Outcome) error
	ListProgress(ctx context.Context, childID uuid.UUID) ([]ProgressRow, error)

	SetWeekFrozen(ctx context.Context, familyID uuid.UUID, from, to time.Time, frozen bool) (int, error)
	UpsertOffDays(ctx context.Context, familyID uuid.UUID, days []time.Time) (int, error)
	FamiliesWithRecentEvents(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}
