package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/auth"
)

const identityKey contextKey = "identity"

// Authenticator resolves access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Auth resolves the Supabase access token (bearer header or session cookie)
// to an Identity. Missing or invalid tokens return 401.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token := auth.TokenFromRequest(r)
			if token == "" {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Access token is required", requestID)
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid or expired access token", requestID)
					return
				}
				slog.Error("authentication failed", "error", err, "requestId", requestID)
				response.Err(w, http.StatusBadGateway, response.CodeUpstream, "Authentication service unavailable", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns ctx carrying id. Handlers read it with GetIdentity.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
