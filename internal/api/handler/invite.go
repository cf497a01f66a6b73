package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/invite"
)

// InviteService manages family invites.
type InviteService interface {
	Create(ctx context.Context, userID uuid.UUID, email, role string, childScope []uuid.UUID) (*invite.Created, error)
	List(ctx context.Context, userID uuid.UUID, email string) ([]invite.Invite, error)
	Preview(ctx context.Context, token string) (*invite.Preview, error)
	Accept(ctx context.Context, userID uuid.UUID, token string) (*invite.Accepted, error)
}

type createInviteRequest struct {
	Email      string      `json:"email" validate:"required,email,max=254"`
	Role       string      `json:"role" validate:"required,oneof=parent tutor child"`
	ChildScope []uuid.UUID `json:"child_scope" validate:"max=50"`
}

type acceptInviteRequest struct {
	Token string `json:"token" validate:"notblank,max=200"`
}

// InviteHandler handles the /api/invites endpoints.
type InviteHandler struct {
	svc InviteService
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(svc InviteService) *InviteHandler {
	return &InviteHandler{svc: svc}
}

// Create handles POST /api/invites. The token is only ever returned here.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), userID(r), req.Email, req.Role, req.ChildScope)
	if err != nil {
		serviceError(w, r, err, "create invite")
		return
	}

	response.Success(w, http.StatusCreated, created, middleware.GetRequestID(r.Context()))
}

// List handles GET /api/invites.
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	var email string
	if id := middleware.GetIdentity(r.Context()); id != nil {
		email = id.Email
	}

	invites, err := h.svc.List(r.Context(), userID(r), email)
	if err != nil {
		serviceError(w, r, err, "list invites")
		return
	}

	response.SuccessList(w, invites, len(invites), middleware.GetRequestID(r.Context()))
}

// Preview handles GET /api/invites/preview/{token}. No authentication.
func (h *InviteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Preview(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		serviceError(w, r, err, "preview invite")
		return
	}
	response.Success(w, http.StatusOK, preview, middleware.GetRequestID(r.Context()))
}

// Accept handles POST /api/invites/accept.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	accepted, err := h.svc.Accept(r.Context(), userID(r), req.Token)
	if err != nil {
		serviceError(w, r, err, "accept invite")
		return
	}

	response.Success(w, http.StatusOK, accepted, middleware.GetRequestID(r.Context()))
}
