package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnadoodle/planner/internal/family"
)

const inviteColumns = `id, family_id, email, role, COALESCE(child_scope, '{}'), token_prefix, token_hash,
	invited_by, expires_at, accepted_at, accepted_by, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new invite record.
func (r *PostgresRepository) Create(ctx context.Context, inv *Invite) error {
	query := `
		INSERT INTO invites (family_id, email, role, child_scope, token_prefix, token_hash, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		inv.FamilyID, inv.Email, inv.Role, inv.ChildScope,
		inv.TokenPrefix, inv.TokenHash, inv.InvitedBy, inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return family.ErrFamilyNotFound
		}
		return fmt.Errorf("inserting invite: %w", err)
	}
	return nil
}

// FindByPrefix returns every invite whose token starts with prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Invite, error) {
	return r.list(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token_prefix = $1`, prefix)
}

// ListByFamily returns the family's invites, newest first.
func (r *PostgresRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]Invite, error) {
	return r.list(ctx, `SELECT `+inviteColumns+` FROM invites WHERE family_id = $1 ORDER BY created_at DESC`, familyID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Invite, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	defer rows.Close()

	var invites []Invite
	for rows.Next() {
		var inv Invite
		err := rows.Scan(
			&inv.ID, &inv.FamilyID, &inv.Email, &inv.Role, &inv.ChildScope,
			&inv.TokenPrefix, &inv.TokenHash, &inv.InvitedBy, &inv.ExpiresAt,
			&inv.AcceptedAt, &inv.AcceptedBy, &inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning invite row: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invite rows: %w", err)
	}

	if invites == nil {
		invites = []Invite{}
	}
	return invites, nil
}

// Accept claims the invite inside one transaction. The invite row is locked
// so two users cannot accept the same token.
func (r *PostgresRepository) Accept(ctx context.Context, inv *Invite, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var acceptedAt *time.Time
	err = tx.QueryRow(ctx, `SELECT accepted_at FROM invites WHERE id = $1 FOR UPDATE`, inv.ID).Scan(&acceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("locking invite: %w", err)
	}
	if acceptedAt != nil {
		return ErrInviteAccepted
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO family_members (family_id, user_id, member_role, child_scope)
		VALUES ($1, $2, $3, $4)`,
		inv.FamilyID, userID, inv.Role, inv.ChildScope)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return family.ErrDuplicateMember
		}
		return fmt.Errorf("adding family member: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE profiles
		SET family_id = COALESCE(family_id, $2), role = COALESCE(role, $3)
		WHERE id = $1`,
		userID, inv.FamilyID, inv.Role)
	if err != nil {
		return fmt.Errorf("linking profile: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE invites SET accepted_at = NOW(), accepted_by = $2
		WHERE id = $1
		RETURNING accepted_at`,
		inv.ID, userID).Scan(&inv.AcceptedAt)
	if err != nil {
		return fmt.Errorf("marking invite accepted: %w", err)
	}
	inv.AcceptedBy = &userID

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing accept: %w", err)
	}
	return nil
}
