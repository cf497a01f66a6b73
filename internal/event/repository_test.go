package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/dbtest"
	"github.com/learnadoodle/planner/internal/event"
)

func setupEventRepo(t *testing.T) (event.Repository, *pgxpool.Pool, uuid.UUID, uuid.UUID) {
	t.Helper()
	pool := dbtest.Pool(t, "attendance_records", "event_outcomes", "calendar_days_cache", "events", "children", "family")
	ctx := context.Background()

	var fam, child uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO family (name) VALUES ('Test') RETURNING id`).Scan(&fam))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO children (family_id, first_name) VALUES ($1, 'Kid') RETURNING id`, fam).Scan(&child))
	return event.NewRepository(pool), pool, fam, child
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, fam, child uuid.UUID, start time.Time) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO events (family_id, child_id, title, start_ts, end_ts, status)
		VALUES ($1, $2, 'Math', $3, $4, 'scheduled') RETURNING id`,
		fam, child, start, start.Add(45*time.Minute)).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRepository_EventLifecycle(t *testing.T) {
	repo, pool, fam, child := setupEventRepo(t)
	ctx := context.Background()
	start := time.Date(2025, 9, 8, 9, 0, 0, 0, time.UTC)
	id := seedEvent(t, pool, fam, child, start)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Math", e.Title)
	assert.Equal(t, 45, e.DurationMinutes())

	done, err := repo.MarkDone(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, event.StatusDone, done.Status)

	moved, err := repo.Reschedule(ctx, id, start.AddDate(0, 0, 1), start.AddDate(0, 0, 1).Add(time.Hour), "manual", "Rescheduled to 2025-09-09")
	require.NoError(t, err)
	require.NotNil(t, moved.RescheduleOrigin)
	assert.Equal(t, "manual", *moved.RescheduleOrigin)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, event.ErrEventNotFound)

	events, err := repo.ListForChildBetween(ctx, child, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestRepository_AttendanceUpsertIsPerEvent(t *testing.T) {
	repo, pool, fam, child := setupEventRepo(t)
	ctx := context.Background()
	start := time.Date(2025, 9, 8, 9, 0, 0, 0, time.UTC)
	id := seedEvent(t, pool, fam, child, start)
	user := uuid.New()

	a := &event.Attendance{FamilyID: fam, ChildID: &child, EventID: id, DayDate: start, Minutes: 45, Status: "present", CreatedBy: user}
	require.NoError(t, repo.UpsertAttendance(ctx, a))
	first := a.ID

	a.Minutes = 30
	require.NoError(t, repo.UpsertAttendance(ctx, a))
	assert.Equal(t, first, a.ID)

	days, err := repo.ListAttendanceDays(ctx, child, 30)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestRepository_CalendarDays(t *testing.T) {
	repo, _, fam, _ := setupEventRepo(t)
	ctx := context.Background()
	monday := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)

	n, err := repo.UpsertOffDays(ctx, fam, []time.Time{monday, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 9)})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	affected, err := repo.SetWeekFrozen(ctx, fam, monday, monday.AddDate(0, 0, 7), true)
	require.NoError(t, err)
	assert.Equal(t, 2, affected)
}
