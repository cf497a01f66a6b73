// Package invite lets parents bring other parents, tutors and child accounts
// into their family with single-use tokens.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnadoodle/planner/internal/family"
)

const (
	tokenPrefix = "inv_"
	prefixLen   = 8
)

var (
	// ErrOnlyParents is returned when a non-parent tries to invite.
	ErrOnlyParents = errors.New("only parents can create invites")
	// ErrInvalidRole is returned for roles other than parent, tutor or child.
	ErrInvalidRole = errors.New("role must be parent, tutor or child")
	// ErrScopeRequired is returned when a tutor invite names no children.
	ErrScopeRequired = errors.New("tutors must specify child_scope")
	// ErrInvalidChildScope is returned when the scope names children outside the family.
	ErrInvalidChildScope = errors.New("child_scope contains children outside the family")
	// ErrInviteExpired is returned for invites past their expiry.
	ErrInviteExpired = errors.New("invite has expired")
)

// FamilyResolver maps a user to their family.
type FamilyResolver interface {
	FamilyID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	Forget(userID uuid.UUID)
}

// Service provides invite operations.
type Service struct {
	invites    Repository
	families   family.Repository
	resolver   FamilyResolver
	bcryptCost int
	ttl        time.Duration
	now        func() time.Time
}

// NewService creates a new invite Service.
func NewService(invites Repository, families family.Repository, resolver FamilyResolver, bcryptCost int, ttl time.Duration) *Service {
	return &Service{
		invites:    invites,
		families:   families,
		resolver:   resolver,
		bcryptCost: bcryptCost,
		ttl:        ttl,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GenerateToken creates a new invite token. Returns the raw token, its
// prefix (first 8 chars) and the bcrypt hash. The raw token is 32 random
// bytes, base64url encoded, with "inv_" prepended.
func (s *Service) GenerateToken() (raw, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	raw = tokenPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = raw[:prefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(raw), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing token: %w", err)
	}
	return raw, prefix, string(hashBytes), nil
}

// Create makes an invite on behalf of a parent. Tutors need an explicit
// child scope; child accounts default to the family's first child.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, email, role string, childScope []uuid.UUID) (*Created, error) {
	if !slices.Contains(family.ValidRoles, role) {
		return nil, ErrInvalidRole
	}

	familyID, err := s.resolver.FamilyID(ctx, userID)
	if err != nil {
		return nil, err
	}

	isParent, err := s.families.IsParent(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	if !isParent {
		return nil, ErrOnlyParents
	}

	scope, err := s.scopeFor(ctx, familyID, role, childScope)
	if err != nil {
		return nil, err
	}

	raw, prefix, hash, err := s.GenerateToken()
	if err != nil {
		return nil, err
	}

	inv := &Invite{
		FamilyID:    familyID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Role:        role,
		ChildScope:  scope,
		TokenPrefix: prefix,
		TokenHash:   hash,
		InvitedBy:   userID,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, err
	}

	slog.Info("invite created", "inviteId", inv.ID, "family", family.HashID(familyID), "role", role)
	return &Created{Invite: inv, Token: raw}, nil
}

func (s *Service) scopeFor(ctx context.Context, familyID uuid.UUID, role string, requested []uuid.UUID) ([]uuid.UUID, error) {
	switch role {
	case family.RoleTutor:
		if len(requested) == 0 {
			return nil, ErrScopeRequired
		}
		return s.validateScope(ctx, familyID, requested)
	case family.RoleChild:
		if len(requested) > 0 {
			return s.validateScope(ctx, familyID, requested[:1])
		}
		children, err := s.families.ListChildren(ctx, familyID)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return []uuid.UUID{}, nil
		}
		return []uuid.UUID{children[0].ID}, nil
	default:
		return []uuid.UUID{}, nil
	}
}

func (s *Service) validateScope(ctx context.Context, familyID uuid.UUID, requested []uuid.UUID) ([]uuid.UUID, error) {
	ids := slices.Clone(requested)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	ids = slices.Compact(ids)

	found, err := s.families.ChildrenByID(ctx, familyID, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, ErrInvalidChildScope
	}
	return ids, nil
}

// resolve finds the pending invite matching raw, or reports why it is unusable.
func (s *Service) resolve(ctx context.Context, raw string) (*Invite, error) {
	if len(raw) < prefixLen || !strings.HasPrefix(raw, tokenPrefix) {
		return nil, ErrInviteNotFound
	}

	candidates, err := s.invites.FindByPrefix(ctx, raw[:prefixLen])
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		inv := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(raw)) != nil {
			continue
		}
		if inv.AcceptedAt != nil {
			return nil, ErrInviteAccepted
		}
		if !s.now().Before(inv.ExpiresAt) {
			return nil, ErrInviteExpired
		}
		return inv, nil
	}
	return nil, ErrInviteNotFound
}

// Preview describes a pending invite without requiring authentication.
// Family and child names are best effort.
func (s *Service) Preview(ctx context.Context, raw string) (*Preview, error) {
	inv, err := s.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Email:      inv.Email,
		Role:       inv.Role,
		ChildScope: inv.ChildScope,
		ChildNames: []ChildName{},
		ExpiresAt:  inv.ExpiresAt,
	}
	if name, err := s.families.FamilyName(ctx, inv.FamilyID); err == nil {
		p.FamilyName = name
	} else {
		slog.Warn("family name unavailable for invite preview", "inviteId", inv.ID, "error", err)
	}

	if inv.Role == family.RoleTutor && len(inv.ChildScope) > 0 {
		children, err := s.families.ChildrenByID(ctx, inv.FamilyID, inv.ChildScope)
		if err != nil {
			slog.Warn("child names unavailable for invite preview", "inviteId", inv.ID, "error", err)
		}
		for _, c := range children {
			p.ChildNames = append(p.ChildNames, ChildName{ID: c.ID, Name: c.DisplayName()})
		}
	}
	return p, nil
}

// Accept joins userID to the invite's family with the invite's role.
func (s *Service) Accept(ctx context.Context, userID uuid.UUID, raw string) (*Accepted, error) {
	inv, err := s.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := s.invites.Accept(ctx, inv, userID); err != nil {
		return nil, err
	}
	s.resolver.Forget(userID)

	slog.Info("invite accepted", "inviteId", inv.ID, "family", family.HashID(inv.FamilyID), "role", inv.Role)
	return &Accepted{FamilyID: inv.FamilyID, Role: inv.Role, ChildScope: inv.ChildScope}, nil
}

// List returns the family's invites. Parents see all of them; other members
// only those sent to their email or sent by them.
func (s *Service) List(ctx context.Context, userID uuid.UUID, email string) ([]Invite, error) {
	familyID, err := s.resolver.FamilyID(ctx, userID)
	if err != nil {
		if errors.Is(err, family.ErrFamilyNotFound) {
			return []Invite{}, nil
		}
		return nil, err
	}

	all, err := s.invites.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	isParent, err := s.families.IsParent(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	if isParent {
		return all, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	visible := []Invite{}
	for _, inv := range all {
		if inv.InvitedBy == userID || (email != "" && inv.Email == email) {
			visible = append(visible, inv)
		}
	}
	return visible, nil
}
