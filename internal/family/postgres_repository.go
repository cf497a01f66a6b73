package family

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// FamilyIDForUser reads the family from the user's profile.
func (r *PostgresRepository) FamilyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var familyID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT family_id FROM profiles WHERE id = $1`, userID).Scan(&familyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrFamilyNotFound
		}
		return uuid.Nil, fmt.Errorf("querying profile family: %w", err)
	}
	if familyID == nil {
		return uuid.Nil, ErrFamilyNotFound
	}
	return *familyID, nil
}

// FamilyName returns the display name of a family, or "" when unnamed.
func (r *PostgresRepository) FamilyName(ctx context.Context, familyID uuid.UUID) (string, error) {
	var name *string
	err := r.pool.QueryRow(ctx, `SELECT name FROM family WHERE id = $1`, familyID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrFamilyNotFound
		}
		return "", fmt.Errorf("querying family name: %w", err)
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

// Membership prefers the family_members row and falls back to the role kept
// on the profile for accounts created before memberships existed.
func (r *PostgresRepository) Membership(ctx context.Context, userID uuid.UUID) (*Membership, error) {
	query := `
		SELECT family_id, member_role, COALESCE(child_scope, '{}')
		FROM family_members
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT 1`

	var m Membership
	err := r.pool.QueryRow(ctx, query, userID).Scan(&m.FamilyID, &m.Role, &m.ChildScope)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying family membership: %w", err)
	}

	var familyID *uuid.UUID
	var role *string
	err = r.pool.QueryRow(ctx, `SELECT family_id, role FROM profiles WHERE id = $1`, userID).Scan(&familyID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("querying profile role: %w", err)
	}
	if familyID == nil || role == nil {
		return nil, ErrMembershipNotFound
	}
	return &Membership{FamilyID: *familyID, Role: *role, ChildScope: []uuid.UUID{}}, nil
}

// IsParent reports whether the user is a parent of the family, either as a
// member or through their profile.
func (r *PostgresRepository) IsParent(ctx context.Context, familyID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM family_members
			WHERE family_id = $1 AND user_id = $2 AND member_role = 'parent'
		) OR EXISTS(
			SELECT 1 FROM profiles
			WHERE id = $2 AND family_id = $1 AND role = 'parent'
		)`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, familyID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking parent role: %w", err)
	}
	return ok, nil
}

// ChildBelongsToFamily reports whether the child is registered to the family.
func (r *PostgresRepository) ChildBelongsToFamily(ctx context.Context, childID, familyID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM children WHERE id = $1 AND family_id = $2)`,
		childID, familyID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking child family: %w", err)
	}
	return ok, nil
}

// ListChildren returns the family's non-archived children, oldest record first.
func (r *PostgresRepository) ListChildren(ctx context.Context, familyID uuid.UUID) ([]Child, error) {
	query := `
		SELECT id, family_id, COALESCE(first_name, ''), COALESCE(archived, false)
		FROM children
		WHERE family_id = $1 AND COALESCE(archived, false) = false
		ORDER BY created_at ASC`

	return r.queryChildren(ctx, query, familyID)
}

// ChildrenByID returns the subset of ids that are children of the family.
func (r *PostgresRepository) ChildrenByID(ctx context.Context, familyID uuid.UUID, ids []uuid.UUID) ([]Child, error) {
	query := `
		SELECT id, family_id, COALESCE(first_name, ''), COALESCE(archived, false)
		FROM children
		WHERE family_id = $1 AND id = ANY($2)
		ORDER BY created_at ASC`

	return r.queryChildren(ctx, query, familyID, ids)
}

func (r *PostgresRepository) queryChildren(ctx context.Context, query string, args ...any) ([]Child, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	var children []Child
	for rows.Next() {
		var c Child
		if err := rows.Scan(&c.ID, &c.FamilyID, &c.FirstName, &c.Archived); err != nil {
			return nil, fmt.Errorf("scanning child row: %w", err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating child rows: %w", err)
	}

	if children == nil {
		children = []Child{}
	}
	return children, nil
}

// ListMembers returns the family's members with their profile email.
func (r *PostgresRepository) ListMembers(ctx context.Context, familyID uuid.UUID) ([]Member, error) {
	query := `
		SELECT m.id, m.family_id, m.user_id, p.email, m.member_role,
		       COALESCE(m.child_scope, '{}'), m.created_at
		FROM family_members m
		LEFT JOIN profiles p ON p.id = m.user_id
		WHERE m.family_id = $1
		ORDER BY m.created_at ASC`

	rows, err := r.pool.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("listing family members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Email, &m.Role, &m.ChildScope, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	if members == nil {
		members = []Member{}
	}
	return members, nil
}
