// Package search runs the global search box: children, events, syllabi and
// uploads matching a query, scoped to one family.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/supabase"
)

// Hit types.
const (
	TypeChild    = "child"
	TypeEvent    = "event"
	TypeDocument = "document"
)

// Per-source result caps.
const (
	eventLimit    = 10
	syllabusLimit = 5
	uploadLimit   = 5
	childLimit    = 5
)

// Hit is one search result.
type Hit struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	Payload  map[string]string `json:"payload"`
}

type childRow struct {
	ID        uuid.UUID `json:"id"`
	FirstName *string   `json:"first_name"`
}

type eventRow struct {
	ID      uuid.UUID  `json:"id"`
	Title   string     `json:"title"`
	StartTS *time.Time `json:"start_ts"`
	ChildID *uuid.UUID `json:"child_id"`
}

type docRow struct {
	ID      uuid.UUID  `json:"id"`
	Title   string     `json:"title"`
	ChildID *uuid.UUID `json:"child_id"`
}

// Aggregator fans a query out to every source in parallel.
type Aggregator struct {
	db *supabase.Client
}

// NewAggregator creates an Aggregator over the Supabase REST API.
func NewAggregator(db *supabase.Client) *Aggregator {
	return &Aggregator{db: db}
}

// Search returns hits grouped as children, events, syllabi, uploads. A blank
// query returns no hits. Any failing source fails the whole search.
func (a *Aggregator) Search(ctx context.Context, familyID uuid.UUID, query string) ([]Hit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []Hit{}, nil
	}
	pattern := "%" + EscapeLike(q) + "%"
	fam := familyID.String()

	var (
		children []childRow
		events   []eventRow
		syllabi  []docRow
		uploads  []docRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.db.Table("children").
			Select("id", "first_name").
			Eq("family_id", fam).
			Order("first_name", true).
			Get(gctx, &children)
	})
	g.Go(func() error {
		return a.db.Table("events").
			Select("id", "title", "start_ts", "child_id").
			Eq("family_id", fam).
			ILike("title", pattern).
			Order("start_ts", false).
			Limit(eventLimit).
			Get(gctx, &events)
	})
	g.Go(func() error {
		return a.db.Table("syllabi").
			Select("id", "title", "child_id").
			Eq("family_id", fam).
			ILike("title", pattern).
			Limit(syllabusLimit).
			Get(gctx, &syllabi)
	})
	g.Go(func() error {
		return a.db.Table("uploads").
			Select("id", "title", "child_id").
			Eq("family_id", fam).
			ILike("title", pattern).
			Limit(uploadLimit).
			Get(gctx, &uploads)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	names := make(map[uuid.UUID]string, len(children))
	for _, c := range children {
		names[c.ID] = nameOf(c)
	}
	childName := func(id *uuid.UUID) string {
		if id == nil {
			return "Unknown"
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return "Unknown"
	}

	hits := []Hit{}
	lower := strings.ToLower(q)
	matched := 0
	for _, c := range children {
		if matched == childLimit {
			break
		}
		if c.FirstName == nil || !strings.Contains(strings.ToLower(*c.FirstName), lower) {
			continue
		}
		matched++
		hits = append(hits, Hit{
			ID:       "child-" + c.ID.String(),
			Type:     TypeChild,
			Title:    nameOf(c),
			Subtitle: "Child Profile",
			Payload:  map[string]string{"childId": c.ID.String()},
		})
	}
	for _, e := range events {
		date := ""
		if e.StartTS != nil {
			date = calendar.Format(*e.StartTS)
		}
		hits = append(hits, Hit{
			ID:       "event-" + e.ID.String(),
			Type:     TypeEvent,
			Title:    e.Title,
			Subtitle: childName(e.ChildID) + " • " + date,
			Payload:  map[string]string{"eventId": e.ID.String()},
		})
	}
	for _, s := range syllabi {
		hits = append(hits, Hit{
			ID:       "syllabus-" + s.ID.String(),
			Type:     TypeDocument,
			Title:    s.Title,
			Subtitle: childName(s.ChildID) + " • Syllabus",
			Payload:  map[string]string{"syllabusId": s.ID.String()},
		})
	}
	for _, u := range uploads {
		hits = append(hits, Hit{
			ID:       "upload-" + u.ID.String(),
			Type:     TypeDocument,
			Title:    u.Title,
			Subtitle: childName(u.ChildID) + " • Upload",
			Payload:  map[string]string{"uploadId": u.ID.String()},
		})
	}
	return hits, nil
}

func nameOf(c childRow) string {
	if c.FirstName == nil || *c.FirstName == "" {
		return "Unknown"
	}
	return *c.FirstName
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, "")

// EscapeLike neutralises LIKE wildcards in user input. PostgREST also treats
// * as a wildcard, so it is dropped.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
