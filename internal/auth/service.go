// Package auth resolves Supabase access tokens to identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/supabase"
)

// audience is the aud claim Supabase puts on signed-in user tokens.
const audience = "authenticated"

// ErrInvalidToken is returned when a token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired access token")

// UserFetcher asks Supabase Auth who a token belongs to.
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// Claims is the subset of the Supabase JWT the service reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service provides authentication operations.
type Service struct {
	secret []byte
	users  UserFetcher
}

// NewService creates a new auth Service. With a JWT secret, tokens are
// verified locally; otherwise each token is checked against Supabase Auth.
func NewService(jwtSecret string, users UserFetcher) *Service {
	s := &Service{users: users}
	if jwtSecret != "" {
		s.secret = []byte(jwtSecret)
	}
	return s
}

// Authenticate resolves an access token to an Identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	if s.secret != nil {
		return s.verifyLocal(token)
	}
	return s.verifyRemote(ctx, token)
}

func (s *Service) verifyLocal(token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return &Identity{UserID: id, Email: claims.Email}, nil
}

func (s *Service) verifyRemote(ctx context.Context, token string) (*Identity, error) {
	if s.users == nil {
		return nil, errors.New("no way to verify tokens: set a JWT secret or a Supabase client")
	}
	u, err := s.users.GetUser(ctx, token)
	if err != nil {
		if supabase.IsUnauthorized(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("verifying token: %w", err)
	}

	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id %q is not a uuid", ErrInvalidToken, u.ID)
	}
	return &Identity{UserID: id, Email: u.Email}, nil
}
