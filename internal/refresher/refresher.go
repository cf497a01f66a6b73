// Package refresher keeps calendar_days_cache warm for families whose events
// changed recently.
package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/family"
)

// Source lists families with events updated since a point in time.
type Source interface {
	FamiliesWithRecentEvents(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// CacheRefresher recomputes a family's cached days in [from, to].
type CacheRefresher interface {
	RefreshCache(ctx context.Context, familyID uuid.UUID, from, to time.Time) error
}

// Refresher polls for changed families and refreshes their upcoming days.
type Refresher struct {
	source   Source
	cache    CacheRefresher
	interval time.Duration
	window   int
	now      func() time.Time
	since    time.Time
}

// New creates a Refresher that runs every interval and refreshes windowDays
// days starting today.
func New(source Source, cache CacheRefresher, interval time.Duration, windowDays int) *Refresher {
	return &Refresher{
		source:   source,
		cache:    cache,
		interval: interval,
		window:   windowDays,
		now:      time.Now,
	}
}

// WithClock overrides the clock.
func (r *Refresher) WithClock(now func() time.Time) *Refresher {
	r.now = now
	return r
}

// Start runs the refresh loop. It blocks until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	slog.Info("refresher started", "interval", r.interval.String(), "windowDays", r.window)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresher stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes every family with events changed since the previous
// successful pass (one interval back on the first pass) and returns how many
// families were refreshed. A failing family is logged and skipped.
func (r *Refresher) RunOnce(ctx context.Context) int {
	started := r.now()
	since := r.since
	if since.IsZero() {
		since = started.Add(-r.interval)
	}

	families, err := r.source.FamiliesWithRecentEvents(ctx, since)
	if err != nil {
		slog.Error("refresher: failed to list families", "error", err)
		return 0
	}

	from := calendar.Midnight(started)
	to := from.AddDate(0, 0, r.window)

	refreshed := 0
	for _, id := range families {
		if ctx.Err() != nil {
			return refreshed
		}
		if err := r.cache.RefreshCache(ctx, id, from, to); err != nil {
			slog.Warn("refresher: failed to refresh family", "family", family.HashID(id), "error", err)
			continue
		}
		refreshed++
	}

	r.since = started
	if len(families) > 0 {
		slog.Info("refresher: pass complete", "families", len(families), "refreshed", refreshed)
	}
	return refreshed
}
