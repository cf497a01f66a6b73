package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/family"
)

const familyKey contextKey = "familyID"

// FamilyResolver maps a user to their family.
type FamilyResolver interface {
	FamilyID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// RequireFamily resolves the caller's family and stores it in the context.
// It must run after Auth. Users without a family get 404.
func RequireFamily(resolver FamilyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Access token is required", requestID)
				return
			}

			familyID, err := resolver.FamilyID(r.Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, family.ErrFamilyNotFound) {
					response.Err(w, http.StatusNotFound, response.CodeNotFound, "No family found for user", requestID)
					return
				}
				slog.Error("failed to resolve family", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to resolve family", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), familyKey, familyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetFamilyID returns the family stored by RequireFamily, or uuid.Nil.
func GetFamilyID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(familyKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithFamilyID returns ctx carrying familyID.
func WithFamilyID(ctx context.Context, familyID uuid.UUID) context.Context {
	return context.WithValue(ctx, familyKey, familyID)
}
