package syllabus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements SectionRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new SectionRepository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) SectionRepository {
	return &PostgresRepository{pool: pool}
}

// ReplaceSections swaps the stored outline of one of the family's syllabi in
// one transaction. The syllabus row is locked for the duration.
func (r *PostgresRepository) ReplaceSections(ctx context.Context, familyID, syllabusID uuid.UUID, sections []Section) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var owner uuid.UUID
	err = tx.QueryRow(ctx, `SELECT family_id FROM syllabi WHERE id = $1 FOR UPDATE`, syllabusID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSyllabusNotFound
		}
		return fmt.Errorf("locking syllabus: %w", err)
	}
	if owner != familyID {
		return ErrSyllabusNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM syllabus_sections WHERE syllabus_id = $1`, syllabusID); err != nil {
		return fmt.Errorf("clearing sections: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range sections {
		batch.Queue(`
			INSERT INTO syllabus_sections
				(syllabus_id, position, section_type, heading, notes, estimated_minutes, suggested_due_ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			syllabusID, s.Position, s.SectionType, s.Heading, s.Notes, s.EstimatedMinutes, s.SuggestedDueTS,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrSyllabusNotFound
		}
		return fmt.Errorf("inserting sections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sections: %w", err)
	}
	return nil
}
