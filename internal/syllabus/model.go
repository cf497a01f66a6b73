package syllabus

import "github.com/google/uuid"

// Step is one lesson-plan step produced by Chunk.
type Step struct {
	Order        int      `json:"order"`
	Kind         string   `json:"kind"`
	Title        string   `json:"title"`
	Details      string   `json:"details"`
	ResourceURLs []string `json:"resource_urls"`
	Minutes      int      `json:"minutes"`
}

// Section types produced by Sections.
const (
	SectionUnit   = "unit"
	SectionLesson = "lesson"
)

// Section is one row of a parsed syllabus outline.
type Section struct {
	SyllabusID       *uuid.UUID `json:"syllabus_id,omitempty"`
	Position         int        `json:"position"`
	SectionType      string     `json:"section_type"`
	Heading          string     `json:"heading"`
	Notes            *string    `json:"notes"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	SuggestedDueTS   *string    `json:"suggested_due_ts"`
}

// ImportRequest describes a syllabus to store and turn into a lesson plan.
type ImportRequest struct {
	FamilyID  uuid.UUID
	SubjectID *uuid.UUID
	Title     string
	Provider  string
	Text      string
	StartUnit int
	AutoPace  bool
	ChildID   *uuid.UUID
	WeekStart string // YYYY-MM-DD, must be a Monday
}

// ImportResult is returned by Service.Import.
type ImportResult struct {
	PlanID     *uuid.UUID `json:"planId"`
	UploadPath string     `json:"uploadPath"`
	Steps      []Step     `json:"steps"`
	Paced      bool       `json:"paced"`
}
