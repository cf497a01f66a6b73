package child

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
)

// streakLookback bounds how many attendance days are read to compute a streak.
const streakLookback = 30

// ErrChildRoleRequired is returned when a non-child account asks for the overview.
var ErrChildRoleRequired = errors.New("child role required")

// Overview is the child dashboard payload.
type Overview struct {
	ChildID     *uuid.UUID    `json:"childId"`
	TodayEvents []event.Event `json:"todayEvents"`
	Streak      int           `json:"streak"`
	Progress    *Progress     `json:"progress"`
}

// Service assembles child overviews.
type Service struct {
	families family.Repository
	events   event.Repository
	now      func() time.Time
}

// NewService creates a new child Service.
func NewService(families family.Repository, events event.Repository) *Service {
	return &Service{families: families, events: events, now: time.Now}
}

// WithClock overrides the clock that decides what "today" is.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Overview returns today's events, the attendance streak and progress for
// the child linked to userID. Streak and progress failures degrade to zero
// values; failing to load today's events fails the call.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	m, err := s.families.Membership(ctx, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, ErrChildRoleRequired
		}
		return nil, err
	}
	if m.Role != family.RoleChild {
		return nil, ErrChildRoleRequired
	}

	childID, err := s.resolveChild(ctx, m)
	if err != nil {
		return nil, err
	}
	out := &Overview{TodayEvents: []event.Event{}}
	if childID == nil {
		return out, nil
	}
	out.ChildID = childID

	today := calendar.Midnight(s.now())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := s.events.ListForChildBetween(gctx, *childID, today, today.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("loading today's events: %w", err)
		}
		out.TodayEvents = events
		return nil
	})
	g.Go(func() error {
		days, err := s.events.ListAttendanceDays(gctx, *childID, streakLookback)
		if err != nil {
			slog.Warn("streak unavailable", "childId", childID, "error", err)
			return nil
		}
		out.Streak = Streak(days, today)
		return nil
	})
	g.Go(func() error {
		rows, err := s.events.ListProgress(gctx, *childID)
		if err != nil {
			slog.Warn("progress unavailable", "childId", childID, "error", err)
			return nil
		}
		out.Progress = Summarize(rows)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveChild picks the first scoped child, or the family's first active child.
func (s *Service) resolveChild(ctx context.Context, m *family.Membership) (*uuid.UUID, error) {
	if len(m.ChildScope) > 0 {
		id := m.ChildScope[0]
		return &id, nil
	}
	children, err := s.families.ListChildren(ctx, m.FamilyID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	id := children[0].ID
	return &id, nil
}
