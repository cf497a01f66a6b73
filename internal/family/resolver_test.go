package family_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/family"
)

type mockRepo struct {
	family.Repository
	familyIDFn func(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	calls      int
}

func (m *mockRepo) FamilyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	m.calls++
	return m.familyIDFn(ctx, userID)
}

func TestResolver_CachesHits(t *testing.T) {
	t.Parallel()

	fam := uuid.New()
	repo := &mockRepo{familyIDFn: func(context.Context, uuid.UUID) (uuid.UUID, error) { return fam, nil }}
	r := family.NewResolver(repo, time.Minute)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		got, err := r.FamilyID(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, fam, got)
	}
	assert.Equal(t, 1, repo.calls)

	r.Forget(user)
	_, err := r.FamilyID(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestResolver_DoesNotCacheMisses(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{familyIDFn: func(context.Context, uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, family.ErrFamilyNotFound
	}}
	r := family.NewResolver(repo, time.Minute)
	user := uuid.New()

	_, err := r.FamilyID(context.Background(), user)
	assert.ErrorIs(t, err, family.ErrFamilyNotFound)
	_, err = r.FamilyID(context.Background(), user)
	assert.ErrorIs(t, err, family.ErrFamilyNotFound)
	assert.Equal(t, 2, repo.calls)
}

func TestResolver_PropagatesErrors(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{familyIDFn: func(context.Context, uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, errors.New("connection refused")
	}}

	_, err := family.NewResolver(repo, time.Minute).FamilyID(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "connection refused")
}

func TestHashID(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("5f0c2a4e-1b9d-4c3e-8f7a-2d6b9e1c0a34")
	h := family.HashID(id)

	assert.Len(t, h, 16)
	assert.Regexp(t, `^[0-9a-f]{16}$`, h)
	assert.Equal(t, h, family.HashID(id))
	assert.NotEqual(t, h, family.HashID(uuid.New()))
}

func TestChild_DisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Child", family.Child{}.DisplayName())
	assert.Equal(t, "Ada", family.Child{FirstName: "Ada"}.DisplayName())
}
