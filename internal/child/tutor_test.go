package child_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/child"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
)

type scopedFamilies struct {
	mockFamilies
	byIDFn func(ctx context.Context, familyID uuid.UUID, ids []uuid.UUID) ([]family.Child, error)
}

func (m *scopedFamilies) ChildrenByID(ctx context.Context, familyID uuid.UUID, ids []uuid.UUID) ([]family.Child, error) {
	return m.byIDFn(ctx, familyID, ids)
}

func member(role string, scope ...uuid.UUID) *scopedFamilies {
	fam := uuid.New()
	return &scopedFamilies{mockFamilies: mockFamilies{
		membershipFn: func(context.Context, uuid.UUID) (*family.Membership, error) {
			return &family.Membership{FamilyID: fam, Role: role, ChildScope: scope}, nil
		},
	}}
}

func TestTutorOverview(t *testing.T) {
	t.Parallel()

	maya, eli, gone := uuid.New(), uuid.New(), uuid.New()
	fams := member(family.RoleTutor, eli, gone, maya)
	fams.byIDFn = func(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]family.Child, error) {
		assert.Len(t, ids, 3)
		return []family.Child{
			{ID: maya, FirstName: "Maya"},
			{ID: eli},
			{ID: gone, FirstName: "Old", Archived: true},
		}, nil
	}

	var mu sync.Mutex
	listed := map[uuid.UUID]bool{}
	events := &mockEvents{
		listFn: func(_ context.Context, id uuid.UUID, from, to time.Time) ([]event.Event, error) {
			mu.Lock()
			listed[id] = true
			mu.Unlock()
			assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), from)
			assert.Equal(t, 24*time.Hour, to.Sub(from))
			if id == maya {
				return []event.Event{{ID: uuid.New(), Title: "Fractions"}}, nil
			}
			return []event.Event{}, nil
		},
		progressFn: func(_ context.Context, id uuid.UUID) ([]event.ProgressRow, error) {
			if id == maya {
				return []event.ProgressRow{
					{ChildID: maya, TotalAttendanceMinutes: 45, AvgRating: ptr(4.0), LatestGrade: ptr("A")},
					{ChildID: maya, TotalAttendanceMinutes: 45, AvgRating: ptr(3.0)},
				}, nil
			}
			return nil, nil
		},
	}

	out, err := child.NewService(fams, events).WithClock(func() time.Time { return now }).
		TutorOverview(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, out.Children, 2, "archived children are skipped")

	assert.Equal(t, eli, out.Children[0].ChildID, "scope order is kept")
	assert.Equal(t, "Child", out.Children[0].Name)
	assert.Empty(t, out.Children[0].TodayEvents)
	assert.Zero(t, out.Children[0].Stats.Hours)
	assert.Nil(t, out.Children[0].Stats.AvgRating)

	assert.Equal(t, "Maya", out.Children[1].Name)
	require.Len(t, out.Children[1].TodayEvents, 1)
	assert.InDelta(t, 1.5, out.Children[1].Stats.Hours, 1e-9)
	require.NotNil(t, out.Children[1].Stats.AvgRating)
	assert.InDelta(t, 3.5, *out.Children[1].Stats.AvgRating, 1e-9)
	assert.Equal(t, "A", *out.Children[1].Stats.LastGrade)

	assert.False(t, listed[gone])
}

func TestTutorOverview_EmptyScope(t *testing.T) {
	t.Parallel()

	out, err := child.NewService(member(family.RoleTutor), &mockEvents{}).TutorOverview(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, out.Children)
	assert.Empty(t, out.Children)
}

func TestTutorOverview_RequiresTutorRole(t *testing.T) {
	t.Parallel()

	for _, role := range []string{family.RoleParent, family.RoleChild} {
		_, err := child.NewService(member(role, uuid.New()), &mockEvents{}).TutorOverview(context.Background(), uuid.New())
		assert.ErrorIs(t, err, child.ErrTutorRoleRequired, role)
	}

	nobody := &mockFamilies{membershipFn: func(context.Context, uuid.UUID) (*family.Membership, error) {
		return nil, family.ErrMembershipNotFound
	}}
	_, err := child.NewService(nobody, &mockEvents{}).TutorOverview(context.Background(), uuid.New())
	assert.ErrorIs(t, err, child.ErrTutorRoleRequired)
}

func TestTutorOverview_EventsFailureFails(t *testing.T) {
	t.Parallel()

	kid := uuid.New()
	fams := member(family.RoleTutor, kid)
	fams.byIDFn = func(context.Context, uuid.UUID, []uuid.UUID) ([]family.Child, error) {
		return []family.Child{{ID: kid}}, nil
	}
	events := &mockEvents{
		listFn:     func(context.Context, uuid.UUID, time.Time, time.Time) ([]event.Event, error) { return nil, errors.New("db down") },
		progressFn: func(context.Context, uuid.UUID) ([]event.ProgressRow, error) { return nil, errors.New("view missing") },
	}

	_, err := child.NewService(fams, events).TutorOverview(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "db down")
}

func progressEvents(rows map[uuid.UUID][]event.ProgressRow) *mockEvents {
	return &mockEvents{progressFn: func(_ context.Context, id uuid.UUID) ([]event.ProgressRow, error) {
		return rows[id], nil
	}}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	maya, eli := uuid.New(), uuid.New()
	math, art := uuid.New(), uuid.New()
	fams := member(family.RoleParent)
	fams.listChildrenFn = func(context.Context, uuid.UUID) ([]family.Child, error) {
		return []family.Child{{ID: maya, FirstName: "Maya"}, {ID: eli, FirstName: "Eli"}}, nil
	}
	events := progressEvents(map[uuid.UUID][]event.ProgressRow{
		maya: {{ChildID: maya, SubjectID: &math, CompletedEvents: 3, TotalEvents: 4}, {ChildID: maya, SubjectID: &art}},
		eli:  {{ChildID: eli, SubjectID: &math, TotalAttendanceMinutes: 120, LatestGrade: ptr("B+")}},
	})
	svc := child.NewService(fams, events)

	t.Run("all accessible children", func(t *testing.T) {
		rows, err := svc.Progress(context.Background(), uuid.New(), nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Maya", rows[0].ChildName)
		assert.Equal(t, 3, rows[0].CompletedEvents)
		assert.Equal(t, "Eli", rows[2].ChildName)
		assert.Equal(t, "B+", *rows[2].LatestGrade)
	})

	t.Run("subject filter", func(t *testing.T) {
		rows, err := svc.Progress(context.Background(), uuid.New(), nil, &math)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, math, *r.SubjectID)
		}
	})

	t.Run("child filter", func(t *testing.T) {
		rows, err := svc.Progress(context.Background(), uuid.New(), &eli, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, eli, rows[0].ChildID)
		assert.Equal(t, 120, rows[0].TotalAttendanceMinutes)
	})

	t.Run("child outside family", func(t *testing.T) {
		stranger := uuid.New()
		_, err := svc.Progress(context.Background(), uuid.New(), &stranger, nil)
		assert.ErrorIs(t, err, child.ErrChildNotAccessible)
	})
}

func TestProgress_ScopedMember(t *testing.T) {
	t.Parallel()

	maya, eli := uuid.New(), uuid.New()
	fams := member(family.RoleTutor, maya)
	fams.byIDFn = func(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]family.Child, error) {
		assert.Equal(t, []uuid.UUID{maya}, ids)
		return []family.Child{{ID: maya, FirstName: "Maya"}}, nil
	}
	events := progressEvents(map[uuid.UUID][]event.ProgressRow{
		maya: {{ChildID: maya, CompletedEvents: 1}},
		eli:  {{ChildID: eli, CompletedEvents: 9}},
	})
	svc := child.NewService(fams, events)

	rows, err := svc.Progress(context.Background(), uuid.New(), nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, maya, rows[0].ChildID)

	_, err = svc.Progress(context.Background(), uuid.New(), &eli, nil)
	assert.ErrorIs(t, err, child.ErrChildNotAccessible, "siblings outside the scope are hidden")
}

func TestProgress_NoFamily(t *testing.T) {
	t.Parallel()

	nobody := &mockFamilies{membershipFn: func(context.Context, uuid.UUID) (*family.Membership, error) {
		return nil, family.ErrMembershipNotFound
	}}
	_, err := child.NewService(nobody, &mockEvents{}).Progress(context.Background(), uuid.New(), nil, nil)
	assert.ErrorIs(t, err, family.ErrFamilyNotFound)
}

func TestProgress_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	fams := member(family.RoleParent)
	fams.listChildrenFn = func(context.Context, uuid.UUID) ([]family.Child, error) { return []family.Child{}, nil }

	rows, err := child.NewService(fams, &mockEvents{}).Progress(context.Background(), uuid.New(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
