package handler

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/api/validation"
	"github.com/learnadoodle/planner/internal/calendar"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/planner"
)

// PlannerService runs the event and week operations.
type PlannerService interface {
	CompleteEvent(ctx context.Context, userID, eventID uuid.UUID, in planner.CompleteInput) (*planner.CompleteResult, error)
	SaveOutcome(ctx context.Context, userID, eventID uuid.UUID, in planner.OutcomeInput) (*event.Outcome, error)
	RescheduleEvent(ctx context.Context, userID, eventID uuid.UUID, in planner.RescheduleInput) (*event.Event, error)
	ShiftWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (int, error)
	FreezeWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time, frozen bool) (int, error)
	SyncBlackouts(ctx context.Context, userID uuid.UUID, year int, state string) (*planner.BlackoutSync, error)
}

type completeEventRequest struct {
	MinutesOverride *int    `json:"minutes_override" validate:"omitempty,gte=0,lte=1440"`
	Note            *string `json:"note" validate:"omitempty,max=2000"`
}

type outcomeRequest struct {
	Rating    *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Grade     *string  `json:"grade" validate:"omitempty,max=20"`
	Note      *string  `json:"note" validate:"omitempty,max=2000"`
	Strengths []string `json:"strengths" validate:"max=20,dive,notblank,max=100"`
	Struggles []string `json:"struggles" validate:"max=20,dive,notblank,max=100"`
}

type rescheduleRequest struct {
	NewStartAt time.Time `json:"new_start_at" validate:"required"`
	NewEndAt   time.Time `json:"new_end_at" validate:"required,gtfield=NewStartAt"`
	Origin     string    `json:"origin" validate:"max=50"`
	Reason     string    `json:"reason" validate:"max=500"`
}

// EventHandler handles the /api/events endpoints.
type EventHandler struct {
	svc PlannerService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc PlannerService) *EventHandler {
	return &EventHandler{svc: svc}
}

// Complete handles POST /api/events/{id}/complete. An empty body is allowed.
func (h *EventHandler) Complete(w http.ResponseWriter, r *http.Request) {
	eventID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req completeEventRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CompleteEvent(r.Context(), userID(r), eventID, planner.CompleteInput{
		MinutesOverride: req.MinutesOverride,
		Note:            req.Note,
	})
	if err != nil {
		serviceError(w, r, err, "complete event")
		return
	}

	response.Success(w, http.StatusOK, result, middleware.GetRequestID(r.Context()))
}

// Outcome handles POST /api/events/{id}/outcome.
func (h *EventHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	eventID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req outcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.svc.SaveOutcome(r.Context(), userID(r), eventID, planner.OutcomeInput{
		Rating:    req.Rating,
		Grade:     req.Grade,
		Note:      req.Note,
		Strengths: req.Strengths,
		Struggles: req.Struggles,
	})
	if err != nil {
		serviceError(w, r, err, "save outcome")
		return
	}

	response.Success(w, http.StatusOK, outcome, middleware.GetRequestID(r.Context()))
}

// Reschedule handles PATCH /api/events/{id}/reschedule.
func (h *EventHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	eventID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.svc.RescheduleEvent(r.Context(), userID(r), eventID, planner.RescheduleInput{
		Start:  req.NewStartAt,
		End:    req.NewEndAt,
		Origin: req.Origin,
		Reason: req.Reason,
	})
	if err != nil {
		serviceError(w, r, err, "reschedule event")
		return
	}

	response.Success(w, http.StatusOK, updated, middleware.GetRequestID(r.Context()))
}

var stateCode = regexp.MustCompile(`^[A-Za-z]{2}$`)

type weekRequest struct {
	WeekStart string `json:"week_start" validate:"required,date"`
}

type freezeWeekRequest struct {
	WeekStart string `json:"week_start" validate:"required,date"`
	Frozen    *bool  `json:"frozen" validate:"required"`
}

// PlannerHandler handles the /api/planner and /api/year endpoints.
type PlannerHandler struct {
	svc PlannerService
	now func() time.Time
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(svc PlannerService) *PlannerHandler {
	return &PlannerHandler{svc: svc, now: time.Now}
}

// ShiftWeek handles POST /api/planner/shift_week.
func (h *PlannerHandler) ShiftWeek(w http.ResponseWriter, r *http.Request) {
	var req weekRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	weekStart, _ := calendar.ParseDate(req.WeekStart)

	n, err := h.svc.ShiftWeek(r.Context(), userID(r), weekStart)
	if err != nil {
		serviceError(w, r, err, "shift week")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{
		"weekStart": req.WeekStart,
		"shifted":   n,
	}, middleware.GetRequestID(r.Context()))
}

// FreezeWeek handles POST /api/planner/freeze_week.
func (h *PlannerHandler) FreezeWeek(w http.ResponseWriter, r *http.Request) {
	var req freezeWeekRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	weekStart, _ := calendar.ParseDate(req.WeekStart)

	n, err := h.svc.FreezeWeek(r.Context(), userID(r), weekStart, *req.Frozen)
	if err != nil {
		serviceError(w, r, err, "freeze week")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{
		"weekStart":    req.WeekStart,
		"frozen":       *req.Frozen,
		"affectedDays": n,
	}, middleware.GetRequestID(r.Context()))
}

// SyncBlackouts handles GET /api/year/sync_blackouts?year=&state=.
func (h *PlannerHandler) SyncBlackouts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query()
	var fieldErrors []validation.FieldError
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1900 || year > 2200 {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "year", Message: "year must be a four-digit year"})
	}
	state := strings.TrimSpace(q.Get("state"))
	if !stateCode.MatchString(state) {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "state", Message: "state must be a two-letter state code"})
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.svc.SyncBlackouts(r.Context(), userID(r), year, state)
	if err != nil {
		serviceError(w, r, err, "sync blackouts")
		return
	}

	response.Success(w, http.StatusOK, result, requestID)
}
