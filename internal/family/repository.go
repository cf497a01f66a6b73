package family

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrFamilyNotFound is returned when a user has no family.
var ErrFamilyNotFound = errors.New("family not found")

// ErrMembershipNotFound is returned when a user has neither a family_members
// row nor a profile with a role.
var ErrMembershipNotFound = errors.New("membership not found")

// ErrDuplicateMember is returned when a user already belongs to the family.
var ErrDuplicateMember = errors.New("user is already a family member")

// Repository provides read access to profiles, children and family_members.
type Repository interface {
	FamilyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	FamilyName(ctx context.Context, familyID uuid.UUID) (string, error)
	Membership(ctx context.Context, userID uuid.UUID) (*Membership, error)
	IsParent(ctx context.Context, familyID, userID uuid.UUID) (bool, error)
	ChildBelongsToFamily(ctx context.Context, childID, familyID uuid.UUID) (bool, error)
	ListChildren(ctx context.Context, familyID uuid.UUID) ([]Child, error)
	ChildrenByID(ctx context.Context, familyID uuid.UUID, ids []uuid.UUID) ([]Child, error)
	ListMembers(ctx context.Context, familyID uuid.UUID) ([]Member, error)
}
