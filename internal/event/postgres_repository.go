package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, family_id, child_id, subject_id, COALESCE(title, ''), start_ts, end_ts,
	COALESCE(status, 'scheduled'), reschedule_origin, reschedule_reason, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.FamilyID, &e.ChildID, &e.SubjectID, &e.Title,
		&e.StartTS, &e.EndTS, &e.Status,
		&e.RescheduleOrigin, &e.RescheduleReason, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID retrieves a single event by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return e, nil
}

// MarkDone sets the event status to done.
func (r *PostgresRepository) MarkDone(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `
		UPDATE events
		SET status = 'done', updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("marking event done: %w", err)
	}
	return e, nil
}

// Reschedule moves an event and records why.
func (r *PostgresRepository) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time, origin, reason string) (*Event, error) {
	query := `
		UPDATE events
		SET start_ts = $2, end_ts = $3, reschedule_origin = $4, reschedule_reason = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, id, start, end, origin, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("rescheduling event: %w", err)
	}
	return e, nil
}

// ListForChildBetween returns the child's events starting in [from, to), in start order.
func (r *PostgresRepository) ListForChildBetween(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE child_id = $1 AND start_ts >= $2 AND start_ts < $3
		ORDER BY start_ts ASC`

	rows, err := r.pool.Query(ctx, query, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// UpsertAttendance inserts or replaces the attendance record of a.EventID.
func (r *PostgresRepository) UpsertAttendance(ctx context.Context, a *Attendance) error {
	query := `
		INSERT INTO attendance_records
			(family_id, child_id, event_id, day_date, minutes, status, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO UPDATE SET
			day_date = EXCLUDED.day_date,
			minutes = EXCLUDED.minutes,
			status = EXCLUDED.status,
			note = EXCLUDED.note,
			created_by = EXCLUDED.created_by
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		a.FamilyID, a.ChildID, a.EventID, a.DayDate, a.Minutes, a.Status, a.Note, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting attendance: %w", err)
	}
	return nil
}

// ListAttendanceDays returns the child's distinct attendance dates, most recent first.
func (r *PostgresRepository) ListAttendanceDays(ctx context.Context, childID uuid.UUID, limit int) ([]time.Time, error) {
	query := `
		SELECT DISTINCT day_date
		FROM attendance_records
		WHERE child_id = $1
		ORDER BY day_date DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, childID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing attendance days: %w", err)
	}
	days, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scanning attendance days: %w", err)
	}
	return days, nil
}

// UpsertOutcome inserts or replaces the outcome of o.EventID.
func (r *PostgresRepository) UpsertOutcome(ctx context.Context, o *Outcome) error {
	query := `
		INSERT INTO event_outcomes
			(family_id, child_id, subject_id, event_id, rating, grade, note, strengths, struggles, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			grade = EXCLUDED.grade,
			note = EXCLUDED.note,
			strengths = EXCLUDED.strengths,
			struggles = EXCLUDED.struggles,
			created_by = EXCLUDED.created_by
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		o.FamilyID, o.ChildID, o.SubjectID, o.EventID,
		o.Rating, o.Grade, o.Note, o.Strengths, o.Struggles, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting outcome: %w", err)
	}
	return nil
}

// ListProgress reads the per-subject rows of the child_progress view.
func (r *PostgresRepository) ListProgress(ctx context.Context, childID uuid.UUID) ([]ProgressRow, error) {
	query := `
		SELECT child_id, subject_id,
		       COALESCE(completed_events, 0), COALESCE(total_events, 0),
		       COALESCE(total_attendance_minutes, 0), avg_rating::float8, latest_grade
		FROM child_progress
		WHERE child_id = $1`

	rows, err := r.pool.Query(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRow
	for rows.Next() {
		var p ProgressRow
		err := rows.Scan(&p.ChildID, &p.SubjectID, &p.CompletedEvents, &p.TotalEvents,
			&p.TotalAttendanceMinutes, &p.AvgRating, &p.LatestGrade)
		if err != nil {
			return nil, fmt.Errorf("scanning progress row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress rows: %w", err)
	}
	return out, nil
}

// SetWeekFrozen flags the cached days in [from, to) and returns how many changed.
func (r *PostgresRepository) SetWeekFrozen(ctx context.Context, familyID uuid.UUID, from, to time.Time, frozen bool) (int, error) {
	query := `
		UPDATE calendar_days_cache
		SET is_frozen = $4
		WHERE family_id = $1 AND date >= $2 AND date < $3`

	result, err := r.pool.Exec(ctx, query, familyID, from, to, frozen)
	if err != nil {
		return 0, fmt.Errorf("freezing week: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// UpsertOffDays marks each day as an unshiftable day off.
func (r *PostgresRepository) UpsertOffDays(ctx context.Context, familyID uuid.UUID, days []time.Time) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO calendar_days_cache (family_id, date, day_status, is_shiftable, is_frozen)
		VALUES ($1, $2, 'off', false, false)
		ON CONFLICT (family_id, date) DO UPDATE SET
			day_status = EXCLUDED.day_status,
			is_shiftable = EXCLUDED.is_shiftable,
			is_frozen = EXCLUDED.is_frozen`

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(query, familyID, d)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	n := 0
	for range days {
		tag, err := br.Exec()
		if err != nil {
			return n, fmt.Errorf("upserting day off: %w", err)
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

// FamiliesWithRecentEvents lists families whose events changed since the given time.
func (r *PostgresRepository) FamiliesWithRecentEvents(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT family_id FROM events WHERE updated_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("listing recently changed families: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scanning family ids: %w", err)
	}
	return ids, nil
}
