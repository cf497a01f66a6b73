package family

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/cache"
)

// Resolver maps users to their family, caching hits for ttl.
type Resolver struct {
	repo  Repository
	cache *cache.TTL[uuid.UUID, uuid.UUID]
}

// NewResolver creates a Resolver over repo.
func NewResolver(repo Repository, ttl time.Duration) *Resolver {
	return &Resolver{repo: repo, cache: cache.New[uuid.UUID, uuid.UUID](ttl)}
}

// FamilyID returns the user's family. Misses are not cached so a freshly
// onboarded family is seen on the next request.
func (r *Resolver) FamilyID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if id, ok := r.cache.Get(userID); ok {
		return id, nil
	}
	id, err := r.repo.FamilyIDForUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	r.cache.Put(userID, id)
	return id, nil
}

// Forget drops the cached family for userID.
func (r *Resolver) Forget(userID uuid.UUID) {
	r.cache.Delete(userID)
}

// HashID returns a short stable digest of a family id for logs.
func HashID(id uuid.UUID) string {
	sum := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(sum[:])[:16]
}
