package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/family"
	"github.com/learnadoodle/planner/internal/supabase"
)

// BlackoutSync summarises a SyncBlackouts run.
type BlackoutSync struct {
	Year     int    `json:"year"`
	State    string `json:"state"`
	Upserted int    `json:"upserted"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
}

// BlackoutPath is the storage object holding a state's holidays for a year.
func BlackoutPath(state string, year int) string {
	return fmt.Sprintf("%s/%d.json", strings.ToUpper(state), year)
}

// SyncBlackouts copies the state's holiday list for year into the family's
// calendar cache as unshiftable days off. Entries that are not YYYY-MM-DD
// strings are skipped.
func (s *Service) SyncBlackouts(ctx context.Context, userID uuid.UUID, year int, state string) (*BlackoutSync, error) {
	familyID, err := s.families.FamilyID(ctx, userID)
	if err != nil {
		return nil, err
	}

	path := BlackoutPath(state, year)
	data, err := s.backend.Download(ctx, blackoutBucket, path)
	if err != nil {
		if supabase.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlackoutsNotFound, path)
		}
		return nil, fmt.Errorf("downloading blackouts: %w", err)
	}

	days, skipped, err := ParseBlackouts(data)
	if err != nil {
		return nil, err
	}

	upserted, err := s.events.UpsertOffDays(ctx, familyID, days)
	if err != nil {
		return nil, fmt.Errorf("storing blackouts: %w", err)
	}

	res := &BlackoutSync{
		Year:     year,
		State:    strings.ToUpper(state),
		Upserted: upserted,
		Skipped:  skipped + len(days) - upserted,
		Total:    len(days) + skipped,
	}
	slog.Info("blackouts synced", "family", family.HashID(familyID), "year", year, "state", res.State,
		"upserted", res.Upserted, "skipped", res.Skipped)
	return res, nil
}

// ParseBlackouts decodes a JSON array of dates. It returns the valid days and
// the number of entries that were skipped.
func ParseBlackouts(data []byte) ([]time.Time, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, 0, ErrInvalidBlackoutFile
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, 0, ErrInvalidBlackoutFile
	}

	days := make([]time.Time, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			skipped++
			continue
		}
		d, err := calendar.ParseDate(s)
		if err != nil {
			slog.Warn("invalid date in blackout file", "value", s)
			skipped++
			continue
		}
		days = append(days, d)
	}
	return days, skipped, nil
}
