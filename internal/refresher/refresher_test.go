package refresher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/refresher"
)

type mockSource struct {
	calls    []time.Time
	families []uuid.UUID
	err      error
}

func (m *mockSource) FamiliesWithRecentEvents(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	m.calls = append(m.calls, since)
	return m.families, m.err
}

type refreshCall struct {
	family   uuid.UUID
	from, to time.Time
}

type mockCache struct {
	calls []refreshCall
	fail  map[uuid.UUID]bool
}

func (m *mockCache) RefreshCache(_ context.Context, fam uuid.UUID, from, to time.Time) error {
	m.calls = append(m.calls, refreshCall{fam, from, to})
	if m.fail[fam] {
		return errors.New("rpc failed")
	}
	return nil
}

func TestRunOnce(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	source := &mockSource{families: []uuid.UUID{a, b}}
	cache := &mockCache{fail: map[uuid.UUID]bool{b: true}}

	now := time.Date(2025, 9, 10, 15, 30, 0, 0, time.UTC)
	r := refresher.New(source, cache, 15*time.Minute, 28).WithClock(func() time.Time { return now })

	assert.Equal(t, 1, r.RunOnce(context.Background()))

	require.Len(t, source.calls, 1)
	assert.Equal(t, now.Add(-15*time.Minute), source.calls[0])

	require.Len(t, cache.calls, 2)
	assert.Equal(t, a, cache.calls[0].family)
	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), cache.calls[0].from)
	assert.Equal(t, time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC), cache.calls[0].to)

	// The next pass starts where the previous one began.
	later := now.Add(15 * time.Minute)
	r.WithClock(func() time.Time { return later })
	r.RunOnce(context.Background())
	require.Len(t, source.calls, 2)
	assert.Equal(t, now, source.calls[1])
}

func TestRunOnce_ListFailureKeepsWindow(t *testing.T) {
	t.Parallel()

	source := &mockSource{err: errors.New("db down")}
	cache := &mockCache{}
	now := time.Date(2025, 9, 10, 15, 30, 0, 0, time.UTC)
	r := refresher.New(source, cache, time.Hour, 7).WithClock(func() time.Time { return now })

	assert.Equal(t, 0, r.RunOnce(context.Background()))
	assert.Empty(t, cache.calls)

	source.err = nil
	r.WithClock(func() time.Time { return now.Add(time.Hour) })
	r.RunOnce(context.Background())
	require.Len(t, source.calls, 2)
	assert.Equal(t, now, source.calls[1], "failed pass does not advance the window")
}

func TestRunOnce_CancelledContext(t *testing.T) {
	t.Parallel()

	source := &mockSource{families: []uuid.UUID{uuid.New(), uuid.New()}}
	cache := &mockCache{}
	r := refresher.New(source, cache, time.Hour, 7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, r.RunOnce(ctx))
	assert.Empty(t, cache.calls)
}

func TestStart_StopsOnCancel(t *testing.T) {
	t.Parallel()

	r := refresher.New(&mockSource{}, &mockCache{}, time.Millisecond, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
