package family

import (
	"time"

	"github.com/google/uuid"
)

// Member roles within a family.
const (
	RoleParent = "parent"
	RoleTutor  = "tutor"
	RoleChild  = "child"
)

// ValidRoles lists the roles a family member may hold.
var ValidRoles = []string{RoleParent, RoleTutor, RoleChild}

// Membership is a user's role within their family. ChildScope limits tutors
// and child accounts to specific children.
type Membership struct {
	FamilyID   uuid.UUID
	Role       string
	ChildScope []uuid.UUID
}

// Child represents a row in the children table.
type Child struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"familyId"`
	FirstName string    `json:"firstName"`
	Archived  bool      `json:"archived"`
}

// DisplayName falls back to "Child" when no first name was recorded.
func (c Child) DisplayName() string {
	if c.FirstName == "" {
		return "Child"
	}
	return c.FirstName
}

// Member represents a row in family_members joined with the member's email.
type Member struct {
	ID         uuid.UUID   `json:"id"`
	FamilyID   uuid.UUID   `json:"familyId"`
	UserID     *uuid.UUID  `json:"userId"`
	Email      *string     `json:"email"`
	Role       string      `json:"role"`
	ChildScope []uuid.UUID `json:"childScope"`
	CreatedAt  time.Time   `json:"createdAt"`
}
