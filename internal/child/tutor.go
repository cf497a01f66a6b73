package child

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
)

// ErrTutorRoleRequired is returned when a non-tutor account asks for the tutor overview.
var ErrTutorRoleRequired = errors.New("tutor role required")

// ErrChildNotAccessible is returned when the caller asks for a child outside
// their family or child scope.
var ErrChildNotAccessible = errors.New("child not accessible")

// TutorStats are the headline numbers shown per child on the tutor dashboard.
type TutorStats struct {
	Hours     float64  `json:"hours"`
	AvgRating *float64 `json:"avgRating"`
	LastGrade *string  `json:"lastGrade"`
}

// TutorChild is one scoped child on the tutor dashboard.
type TutorChild struct {
	ChildID     uuid.UUID     `json:"childId"`
	Name        string        `json:"name"`
	TodayEvents []event.Event `json:"todayEvents"`
	Stats       TutorStats    `json:"stats"`
}

// TutorOverview is the tutor dashboard payload.
type TutorOverview struct {
	Children []TutorChild `json:"children"`
}

// SubjectProgress is one child_progress row labelled with the child's name.
type SubjectProgress struct {
	ChildID                uuid.UUID  `json:"childId"`
	ChildName              string     `json:"childName"`
	SubjectID              *uuid.UUID `json:"subjectId"`
	CompletedEvents        int        `json:"completedEvents"`
	TotalEvents            int        `json:"totalEvents"`
	TotalAttendanceMinutes int        `json:"totalAttendanceMinutes"`
	AvgRating              *float64   `json:"avgRating"`
	LatestGrade            *string    `json:"latestGrade"`
}

// TutorOverview returns today's events and progress stats for every active
// child in the tutor's scope, in scope order. A tutor without a scope sees
// no children.
func (s *Service) TutorOverview(ctx context.Context, userID uuid.UUID) (*TutorOverview, error) {
	m, err := s.families.Membership(ctx, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, ErrTutorRoleRequired
		}
		return nil, err
	}
	if m.Role != family.RoleTutor {
		return nil, ErrTutorRoleRequired
	}

	out := &TutorOverview{Children: []TutorChild{}}
	if len(m.ChildScope) == 0 {
		return out, nil
	}

	children, err := s.families.ChildrenByID(ctx, m.FamilyID, m.ChildScope)
	if err != nil {
		return nil, fmt.Errorf("loading scoped children: %w", err)
	}
	byID := make(map[uuid.UUID]family.Child, len(children))
	for _, c := range children {
		if !c.Archived {
			byID[c.ID] = c
		}
	}
	for _, id := range m.ChildScope {
		if c, ok := byID[id]; ok {
			out.Children = append(out.Children, TutorChild{ChildID: id, Name: c.DisplayName(), TodayEvents: []event.Event{}})
			delete(byID, id)
		}
	}

	today := calendar.Midnight(s.now())
	g, gctx := errgroup.WithContext(ctx)
	for i := range out.Children {
		tc := &out.Children[i]
		g.Go(func() error {
			events, err := s.events.ListForChildBetween(gctx, tc.ChildID, today, today.AddDate(0, 0, 1))
			if err != nil {
				return fmt.Errorf("loading today's events: %w", err)
			}
			tc.TodayEvents = events
			return nil
		})
		g.Go(func() error {
			rows, err := s.events.ListProgress(gctx, tc.ChildID)
			if err != nil {
				slog.Warn("progress unavailable", "childId", tc.ChildID, "error", err)
				return nil
			}
			if p := Summarize(rows); p != nil {
				tc.Stats = TutorStats{Hours: p.Hours, AvgRating: p.AvgRating, LastGrade: p.LatestGrade}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("tutor overview built", "userId", userID, "children", len(out.Children))
	return out, nil
}

// Progress returns the per-subject progress rows for the children the caller
// can see: their child scope when set, otherwise every active child of the
// family. childID and subjectID narrow the result when non-nil.
func (s *Service) Progress(ctx context.Context, userID uuid.UUID, childID, subjectID *uuid.UUID) ([]SubjectProgress, error) {
	m, err := s.families.Membership(ctx, userID)
	if err != nil {
		if errors.Is(err, family.ErrMembershipNotFound) {
			return nil, family.ErrFamilyNotFound
		}
		return nil, err
	}

	children, err := s.accessibleChildren(ctx, m)
	if err != nil {
		return nil, err
	}
	if childID != nil {
		i := slices.IndexFunc(children, func(c family.Child) bool { return c.ID == *childID })
		if i < 0 {
			return nil, ErrChildNotAccessible
		}
		children = children[i : i+1]
	}

	perChild := make([][]event.ProgressRow, len(children))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		g.Go(func() error {
			rows, err := s.events.ListProgress(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("loading progress: %w", err)
			}
			perChild[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []SubjectProgress{}
	for i, rows := range perChild {
		c := children[i]
		for _, r := range rows {
			if subjectID != nil && (r.SubjectID == nil || *r.SubjectID != *subjectID) {
				continue
			}
			out = append(out, SubjectProgress{
				ChildID:                c.ID,
				ChildName:              c.DisplayName(),
				SubjectID:              r.SubjectID,
				CompletedEvents:        r.CompletedEvents,
				TotalEvents:            r.TotalEvents,
				TotalAttendanceMinutes: r.TotalAttendanceMinutes,
				AvgRating:              r.AvgRating,
				LatestGrade:            r.LatestGrade,
			})
		}
	}
	return out, nil
}

func (s *Service) accessibleChildren(ctx context.Context, m *family.Membership) ([]family.Child, error) {
	var (
		children []family.Child
		err      error
	)
	if len(m.ChildScope) > 0 {
		children, err = s.families.ChildrenByID(ctx, m.FamilyID, m.ChildScope)
	} else {
		children, err = s.families.ListChildren(ctx, m.FamilyID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading children: %w", err)
	}
	return slices.DeleteFunc(children, func(c family.Child) bool { return c.Archived }), nil
}
