package invite

import (
	"time"

	"github.com/google/uuid"
)

// Invite represents a row in the invites table. The raw token is never
// stored; only its prefix and bcrypt hash are.
type Invite struct {
	ID          uuid.UUID   `json:"id"`
	FamilyID    uuid.UUID   `json:"familyId"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	ChildScope  []uuid.UUID `json:"childScope"`
	TokenPrefix string      `json:"-"`
	TokenHash   string      `json:"-"`
	InvitedBy   uuid.UUID   `json:"invitedBy"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	AcceptedAt  *time.Time  `json:"acceptedAt"`
	AcceptedBy  *uuid.UUID  `json:"acceptedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Created is returned once, when an invite is made; Token cannot be recovered later.
type Created struct {
	Invite *Invite `json:"invite"`
	Token  string  `json:"token"`
}

// ChildName labels a child in an invite preview.
type ChildName struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Preview is what an invitee sees before accepting.
type Preview struct {
	FamilyName string      `json:"familyName"`
	Email      string      `json:"email"`
	Role       string      `json:"role"`
	ChildScope []uuid.UUID `json:"childScope"`
	ChildNames []ChildName `json:"childNames"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// Accepted is the membership an accepted invite produced.
type Accepted struct {
	FamilyID   uuid.UUID   `json:"familyId"`
	Role       string      `json:"role"`
	ChildScope []uuid.UUID `json:"childScope"`
}
