package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/child"
)

// OverviewService builds the child and tutor dashboards.
type OverviewService interface {
	Overview(ctx context.Context, userID uuid.UUID) (*child.Overview, error)
	TutorOverview(ctx context.Context, userID uuid.UUID) (*child.TutorOverview, error)
	Progress(ctx context.Context, userID uuid.UUID, childID, subjectID *uuid.UUID) ([]child.SubjectProgress, error)
}

// ChildHandler handles the dashboard routes: child overview, tutor overview
// and per-subject progress.
type ChildHandler struct {
	svc OverviewService
}

// NewChildHandler creates a new ChildHandler.
func NewChildHandler(svc OverviewService) *ChildHandler {
	return &ChildHandler{svc: svc}
}

// Overview returns today's events, streak and progress for the signed-in child.
func (h *ChildHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Overview(r.Context(), userID(r))
	if err != nil {
		serviceError(w, r, err, "load overview")
		return
	}
	response.Success(w, http.StatusOK, overview, middleware.GetRequestID(r.Context()))
}

// TutorOverview handles GET /api/tutor/overview.
func (h *ChildHandler) TutorOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.TutorOverview(r.Context(), userID(r))
	if err != nil {
		serviceError(w, r, err, "load tutor overview")
		return
	}
	response.Success(w, http.StatusOK, overview, middleware.GetRequestID(r.Context()))
}

// Progress handles GET /api/dashboard/child_progress?child_id=&subject_id=.
func (h *ChildHandler) Progress(w http.ResponseWriter, r *http.Request) {
	childID, ok := uuidQuery(w, r, "child_id")
	if !ok {
		return
	}
	subjectID, ok := uuidQuery(w, r, "subject_id")
	if !ok {
		return
	}

	rows, err := h.svc.Progress(r.Context(), userID(r), childID, subjectID)
	if err != nil {
		serviceError(w, r, err, "load progress")
		return
	}
	response.SuccessList(w, rows, len(rows), middleware.GetRequestID(r.Context()))
}
