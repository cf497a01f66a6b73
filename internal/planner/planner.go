// Package planner implements the schedule-changing operations: completing,
// grading and moving events, shifting and freezing weeks, and syncing state
// blackout days into the calendar cache.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
)

const blackoutBucket = "state_blackouts"

var (
	// ErrEventForbidden is returned when an event belongs to another family.
	ErrEventForbidden = errors.New("event does not belong to your family")
	// ErrInvalidTimeRange is returned when a new end is not after the new start.
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidMinutes is returned for a negative minutes override.
	ErrInvalidMinutes = errors.New("minutes override must not be negative")
	// ErrBlackoutsNotFound is returned when no blackout file exists for a state and year.
	ErrBlackoutsNotFound = errors.New("blackout file not found")
	// ErrInvalidBlackoutFile is returned when the blackout file is not a JSON array.
	ErrInvalidBlackoutFile = errors.New("invalid blackout file format: expected array of dates")
)

// FamilyResolver maps a user to their family.
type FamilyResolver interface {
	FamilyID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Backend is the slice of the Supabase client the planner calls.
type Backend interface {
	RPC(ctx context.Context, fn string, params any, dest any) error
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

// Service provides the planner operations.
type Service struct {
	families FamilyResolver
	events   event.Repository
	backend  Backend
}

// NewService creates a new planner Service.
func NewService(families FamilyResolver, events event.Repository, backend Backend) *Service {
	return &Service{families: families, events: events, backend: backend}
}

// eventForUser loads an event and checks it belongs to the user's family.
func (s *Service) eventForUser(ctx context.Context, userID, eventID uuid.UUID) (uuid.UUID, *event.Event, error) {
	familyID, err := s.families.FamilyID(ctx, userID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if e.FamilyID != familyID {
		return uuid.Nil, nil, ErrEventForbidden
	}
	return familyID, e, nil
}

// CompleteInput carries the optional completion fields.
type CompleteInput struct {
	MinutesOverride *int
	Note            *string
}

// CompleteResult is the updated event and its attendance record.
type CompleteResult struct {
	Event      *event.Event      `json:"event"`
	Attendance *event.Attendance `json:"attendance"`
}

// CompleteEvent marks an event done and records attendance for its day.
// Minutes default to the event's duration.
func (s *Service) CompleteEvent(ctx context.Context, userID, eventID uuid.UUID, in CompleteInput) (*CompleteResult, error) {
	if in.MinutesOverride != nil && *in.MinutesOverride < 0 {
		return nil, ErrInvalidMinutes
	}

	familyID, e, err := s.eventForUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	minutes := e.DurationMinutes()
	if in.MinutesOverride != nil {
		minutes = *in.MinutesOverride
	}

	updated, err := s.events.MarkDone(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("updating event status: %w", err)
	}

	a := &event.Attendance{
		FamilyID:  familyID,
		ChildID:   e.ChildID,
		EventID:   eventID,
		DayDate:   calendar.Midnight(e.StartTS),
		Minutes:   minutes,
		Status:    "present",
		Note:      in.Note,
		CreatedBy: userID,
	}
	if err := s.events.UpsertAttendance(ctx, a); err != nil {
		return nil, fmt.Errorf("recording attendance: %w", err)
	}

	slog.Info("event completed", "eventId", eventID, "family", family.HashID(familyID), "minutes", minutes)
	return &CompleteResult{Event: updated, Attendance: a}, nil
}

// OutcomeInput carries an outcome report.
type OutcomeInput struct {
	Rating    *int
	Grade     *string
	Note      *string
	Strengths []string
	Struggles []string
}

// SaveOutcome stores the outcome report for an event, replacing any earlier one.
func (s *Service) SaveOutcome(ctx context.Context, userID, eventID uuid.UUID, in OutcomeInput) (*event.Outcome, error) {
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, ErrInvalidRating
	}

	familyID, e, err := s.eventForUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	o := &event.Outcome{
		FamilyID:  familyID,
		ChildID:   e.ChildID,
		SubjectID: e.SubjectID,
		EventID:   eventID,
		Rating:    in.Rating,
		Grade:     in.Grade,
		Note:      in.Note,
		Strengths: nonNil(in.Strengths),
		Struggles: nonNil(in.Struggles),
		CreatedBy: userID,
	}
	if err := s.events.UpsertOutcome(ctx, o); err != nil {
		return nil, fmt.Errorf("saving outcome: %w", err)
	}

	slog.Info("event outcome saved", "eventId", eventID, "family", family.HashID(familyID),
		"hasRating", in.Rating != nil, "hasStrengths", len(o.Strengths) > 0, "hasStruggles", len(o.Struggles) > 0)
	return o, nil
}

// RescheduleInput moves an event.
type RescheduleInput struct {
	Start  time.Time
	End    time.Time
	Origin string
	Reason string
}

// RescheduleEvent moves an event, then refreshes the calendar cache between
// the old and new days. A failed refresh is logged, not returned.
func (s *Service) RescheduleEvent(ctx context.Context, userID, eventID uuid.UUID, in RescheduleInput) (*event.Event, error) {
	if !in.End.After(in.Start) {
		return nil, ErrInvalidTimeRange
	}

	familyID, e, err := s.eventForUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	origin := in.Origin
	if origin == "" {
		origin = "manual"
	}
	reason := in.Reason
	if reason == "" {
		reason = "Rescheduled to " + calendar.Format(in.Start)
	}

	updated, err := s.events.Reschedule(ctx, eventID, in.Start, in.End, origin, reason)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	from, to := refreshRange(e.StartTS, in.Start)
	if err := s.refreshCache(ctx, familyID, from, to); err != nil {
		slog.Warn("calendar cache refresh failed", "eventId", eventID, "error", err)
	}

	slog.Info("event rescheduled", "eventId", eventID, "family", family.HashID(familyID),
		"origin", origin, "oldStart", e.StartTS, "newStart", in.Start)
	return updated, nil
}

// refreshRange covers both the old and the new day, plus the day after.
func refreshRange(oldStart, newStart time.Time) (time.Time, time.Time) {
	a, b := calendar.Midnight(oldStart), calendar.Midnight(newStart)
	if b.Before(a) {
		a, b = b, a
	}
	return a, b.AddDate(0, 0, 1)
}

func (s *Service) refreshCache(ctx context.Context, familyID uuid.UUID, from, to time.Time) error {
	return s.backend.RPC(ctx, "refresh_calendar_days_cache", map[string]any{
		"p_family_id": familyID,
		"p_from_date": calendar.Format(from),
		"p_to_date":   calendar.Format(to),
	}, nil)
}

// RefreshCache recomputes the family's cached calendar days in [from, to].
func (s *Service) RefreshCache(ctx context.Context, familyID uuid.UUID, from, to time.Time) error {
	if err := s.refreshCache(ctx, familyID, from, to); err != nil {
		return fmt.Errorf("refreshing calendar cache: %w", err)
	}
	return nil
}

// ShiftWeek moves every event of the week starting at weekStart forward by
// seven days and returns how many moved.
func (s *Service) ShiftWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (int, error) {
	familyID, err := s.families.FamilyID(ctx, userID)
	if err != nil {
		return 0, err
	}

	var shifted *int
	err = s.backend.RPC(ctx, "shift_week_forward", map[string]any{
		"p_family_id":  familyID,
		"p_week_start": calendar.Format(weekStart),
	}, &shifted)
	if err != nil {
		return 0, fmt.Errorf("shifting week: %w", err)
	}

	n := 0
	if shifted != nil {
		n = *shifted
	}
	slog.Info("week shifted", "family", family.HashID(familyID), "weekStart", calendar.Format(weekStart), "shifted", n)
	return n, nil
}

// FreezeWeek sets or clears the frozen flag on the seven days starting at
// weekStart and returns how many cached days changed.
func (s *Service) FreezeWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time, frozen bool) (int, error) {
	familyID, err := s.families.FamilyID(ctx, userID)
	if err != nil {
		return 0, err
	}

	from := calendar.Midnight(weekStart)
	n, err := s.events.SetWeekFrozen(ctx, familyID, from, from.AddDate(0, 0, 7), frozen)
	if err != nil {
		return 0, err
	}

	slog.Info("week freeze updated", "family", family.HashID(familyID), "weekStart", calendar.Format(from),
		"frozen", frozen, "affectedDays", n)
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
