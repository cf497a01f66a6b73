package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/api/validation"
	"github.com/learnadoodle/planner/internal/child"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
	"github.com/learnadoodle/planner/internal/invite"
	"github.com/learnadoodle/planner/internal/planner"
	"github.com/learnadoodle/planner/internal/supabase"
	"github.com/learnadoodle/planner/internal/syllabus"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return false
	}

	if fieldErrors := validation.Struct(dst); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return false
	}
	return true
}

// uuidParam parses a UUID URL parameter, writing a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, name+" must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter. An absent parameter
// yields nil; a malformed one writes a 400.
func uuidQuery(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, name+" must be a valid UUID", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return &id, true
}

// userID returns the authenticated user. Routes using it sit behind Auth.
func userID(r *http.Request) uuid.UUID {
	if id := middleware.GetIdentity(r.Context()); id != nil {
		return id.UserID
	}
	return uuid.Nil
}

type mappedError struct {
	status int
	code   string
}

// domainErrors maps service sentinels to HTTP answers; the sentinel's own
// message is returned to the client.
var domainErrors = []struct {
	target error
	mappedError
}{
	{family.ErrFamilyNotFound, mappedError{http.StatusNotFound, response.CodeNotFound}},
	{event.ErrEventNotFound, mappedError{http.StatusNotFound, response.CodeNotFound}},
	{syllabus.ErrSyllabusNotFound, mappedError{http.StatusNotFound, response.CodeNotFound}},
	{invite.ErrInviteNotFound, mappedError{http.StatusNotFound, response.CodeNotFound}},
	{planner.ErrBlackoutsNotFound, mappedError{http.StatusNotFound, response.CodeNotFound}},
	{planner.ErrEventForbidden, mappedError{http.StatusForbidden, response.CodeForbidden}},
	{child.ErrChildRoleRequired, mappedError{http.StatusForbidden, response.CodeForbidden}},
	{child.ErrTutorRoleRequired, mappedError{http.StatusForbidden, response.CodeForbidden}},
	{child.ErrChildNotAccessible, mappedError{http.StatusForbidden, response.CodeForbidden}},
	{invite.ErrOnlyParents, mappedError{http.StatusForbidden, response.CodeForbidden}},
	{invite.ErrInviteAccepted, mappedError{http.StatusConflict, response.CodeConflict}},
	{family.ErrDuplicateMember, mappedError{http.StatusConflict, response.CodeConflict}},
	{invite.ErrInviteExpired, mappedError{http.StatusGone, response.CodeNotFound}},
	{planner.ErrInvalidTimeRange, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{planner.ErrInvalidRating, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{planner.ErrInvalidMinutes, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{planner.ErrInvalidBlackoutFile, mappedError{http.StatusUnprocessableEntity, response.CodeValidation}},
	{syllabus.ErrEmptyOutline, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{syllabus.ErrInvalidWeekStart, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{invite.ErrInvalidRole, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{invite.ErrScopeRequired, mappedError{http.StatusBadRequest, response.CodeValidation}},
	{invite.ErrInvalidChildScope, mappedError{http.StatusBadRequest, response.CodeValidation}},
}

// serviceError writes the response for an error returned by a service.
// Unknown errors are logged; Supabase failures become 502.
func serviceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	requestID := middleware.GetRequestID(r.Context())

	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			response.Err(w, m.status, m.code, m.target.Error(), requestID)
			return
		}
	}

	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		slog.Error("upstream call failed", "action", action, "error", err, "status", apiErr.Status, "requestId", requestID)
		response.Err(w, http.StatusBadGateway, response.CodeUpstream, "Failed to "+action, requestID)
		return
	}

	slog.Error("request failed", "action", action, "error", err, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to "+action, requestID)
}
