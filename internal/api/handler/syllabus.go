package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/syllabus"
)

// SyllabusService imports outlines and stores their sections.
type SyllabusService interface {
	Import(ctx context.Context, req syllabus.ImportRequest) (*syllabus.ImportResult, error)
	SaveSections(ctx context.Context, familyID, syllabusID uuid.UUID, text string) ([]syllabus.Section, error)
}

// ChildChecker confirms a child belongs to a family.
type ChildChecker interface {
	ChildBelongsToFamily(ctx context.Context, childID, familyID uuid.UUID) (bool, error)
}

type previewSyllabusRequest struct {
	Text      string `json:"text" validate:"notblank"`
	StartUnit int    `json:"startUnit"`
}

type importSyllabusRequest struct {
	Title     string     `json:"title" validate:"notblank,max=200"`
	Provider  string     `json:"provider" validate:"max=200"`
	Text      string     `json:"text" validate:"notblank"`
	SubjectID *uuid.UUID `json:"subjectId"`
	StartUnit int        `json:"startUnit"`
	AutoPace  bool       `json:"autoPace"`
	ChildID   *uuid.UUID `json:"childId" validate:"required_if=AutoPace true"`
	WeekStart string     `json:"weekStart" validate:"required_if=AutoPace true,omitempty,monday"`
}

type saveSectionsRequest struct {
	SyllabusID uuid.UUID `json:"syllabusId" validate:"required"`
	Text       string    `json:"text" validate:"notblank"`
}

// SyllabusHandler handles the /api/syllabus endpoints.
type SyllabusHandler struct {
	svc      SyllabusService
	children ChildChecker
}

// NewSyllabusHandler creates a new SyllabusHandler.
func NewSyllabusHandler(svc SyllabusService, children ChildChecker) *SyllabusHandler {
	return &SyllabusHandler{svc: svc, children: children}
}

// Preview handles POST /api/syllabus/preview. Nothing is stored.
func (h *SyllabusHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewSyllabusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	startUnit := req.StartUnit
	if startUnit == 0 {
		startUnit = 1
	}
	steps := syllabus.Chunk(req.Text, startUnit)
	response.SuccessList(w, steps, len(steps), middleware.GetRequestID(r.Context()))
}

// Import handles POST /api/syllabus/import.
func (h *SyllabusHandler) Import(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req importSyllabusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	familyID := middleware.GetFamilyID(r.Context())

	if req.ChildID != nil {
		ok, err := h.children.ChildBelongsToFamily(r.Context(), *req.ChildID, familyID)
		if err != nil {
			serviceError(w, r, err, "check child")
			return
		}
		if !ok {
			response.Err(w, http.StatusForbidden, response.CodeForbidden, "Child does not belong to your family", requestID)
			return
		}
	}

	result, err := h.svc.Import(r.Context(), syllabus.ImportRequest{
		FamilyID:  familyID,
		SubjectID: req.SubjectID,
		Title:     req.Title,
		Provider:  req.Provider,
		Text:      req.Text,
		StartUnit: req.StartUnit,
		AutoPace:  req.AutoPace,
		ChildID:   req.ChildID,
		WeekStart: req.WeekStart,
	})
	if err != nil {
		serviceError(w, r, err, "import syllabus")
		return
	}

	response.Success(w, http.StatusCreated, result, requestID)
}

// Sections handles POST /api/syllabus/sections.
func (h *SyllabusHandler) Sections(w http.ResponseWriter, r *http.Request) {
	var req saveSectionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sections, err := h.svc.SaveSections(r.Context(), middleware.GetFamilyID(r.Context()), req.SyllabusID, req.Text)
	if err != nil {
		serviceError(w, r, err, "save sections")
		return
	}

	response.SuccessList(w, sections, len(sections), middleware.GetRequestID(r.Context()))
}
