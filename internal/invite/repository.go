package invite

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInviteNotFound is returned when no invite matches a token.
var ErrInviteNotFound = errors.New("invite not found")

// ErrInviteAccepted is returned when an invite has already been used.
var ErrInviteAccepted = errors.New("invite has already been accepted")

// Repository provides operations on the invites table.
type Repository interface {
	Create(ctx context.Context, inv *Invite) error
	FindByPrefix(ctx context.Context, prefix string) ([]Invite, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]Invite, error)
	// Accept adds the member, links the profile and marks the invite used,
	// atomically.
	Accept(ctx context.Context, inv *Invite, userID uuid.UUID) error
}
