package syllabus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/calendar"
)

// Storage bucket that keeps the raw outline text.
const evidenceBucket = "evidence"

var (
	// ErrEmptyOutline is returned when the outline has no usable lines.
	ErrEmptyOutline = errors.New("outline has no content")
	// ErrInvalidWeekStart is returned when auto-pacing targets a non-Monday.
	ErrInvalidWeekStart = errors.New("week start must be a Monday in YYYY-MM-DD form")
)

var whitespace = regexp.MustCompile(`\s+`)

// Backend is the slice of the Supabase client the import flow needs.
type Backend interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error
	RPC(ctx context.Context, fn string, params any, dest any) error
}

// Service stores syllabi and converts them into lesson plans.
type Service struct {
	backend  Backend
	sections SectionRepository
	now      func() time.Time
}

// NewService creates a new syllabus Service.
func NewService(backend Backend, sections SectionRepository) *Service {
	return &Service{backend: backend, sections: sections, now: time.Now}
}

// WithClock overrides the clock used to name uploads.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Import uploads the raw outline, records it, creates a lesson plan from the
// chunked steps and optionally paces the plan into a child's week.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	startUnit := req.StartUnit
	if startUnit == 0 {
		startUnit = defaultStartUnit
	}
	steps := Chunk(req.Text, startUnit)
	if len(steps) == 0 {
		return nil, ErrEmptyOutline
	}

	pace := req.AutoPace && req.ChildID != nil && req.WeekStart != ""
	if pace {
		if _, err := calendar.ParseWeekStart(req.WeekStart); err != nil {
			return nil, ErrInvalidWeekStart
		}
	}

	path := UploadPath(req.FamilyID, req.Title, s.now())
	if err := s.backend.Upload(ctx, evidenceBucket, path, "text/plain", strings.NewReader(req.Text)); err != nil {
		return nil, fmt.Errorf("uploading outline: %w", err)
	}

	err := s.backend.RPC(ctx, "create_upload_record", map[string]any{
		"_family":  req.FamilyID,
		"_child":   nil,
		"_subject": req.SubjectID,
		"_event":   nil,
		"_path":    path,
		"_mime":    "text/plain",
		"_bytes":   len(req.Text),
		"_title":   req.Title + " (syllabus)",
		"_tags":    []string{"syllabus"},
		"_notes":   nullable(req.Provider),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	provider := req.Provider
	if provider == "" {
		provider = "N/A"
	}
	var plan struct {
		ID *uuid.UUID `json:"id"`
	}
	err = s.backend.RPC(ctx, "create_lesson_plan", map[string]any{
		"_family":      req.FamilyID,
		"_subject":     req.SubjectID,
		"_title":       req.Title,
		"_description": "Provider: " + provider,
		"_grade_level": nil,
		"_tags":        []string{"syllabus"},
		"_steps":       steps,
	}, &plan)
	if err != nil {
		return nil, fmt.Errorf("creating lesson plan: %w", err)
	}

	result := &ImportResult{PlanID: plan.ID, UploadPath: path, Steps: steps}

	if pace && plan.ID != nil {
		err := s.backend.RPC(ctx, "instantiate_plan_to_week", map[string]any{
			"_family":     req.FamilyID,
			"_plan_id":    *plan.ID,
			"_child_id":   *req.ChildID,
			"_week_start": req.WeekStart,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("pacing plan into week: %w", err)
		}
		result.Paced = true
	}

	slog.Info("syllabus imported", "planId", plan.ID, "steps", len(steps), "paced", result.Paced)
	return result, nil
}

// SaveSections parses text with Sections and replaces the stored outline of
// one of the family's syllabi.
func (s *Service) SaveSections(ctx context.Context, familyID, syllabusID uuid.UUID, text string) ([]Section, error) {
	sections := Sections(text)
	for i := range sections {
		sections[i].SyllabusID = &syllabusID
	}
	if err := s.sections.ReplaceSections(ctx, familyID, syllabusID, sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// UploadPath names the stored outline: {family}/{Title_with_underscores}_{unixms}.txt.
func UploadPath(familyID uuid.UUID, title string, at time.Time) string {
	name := whitespace.ReplaceAllString(title, "_")
	return fmt.Sprintf("%s/%s_%d.txt", familyID, name, at.UnixMilli())
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
