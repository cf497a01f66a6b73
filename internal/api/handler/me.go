package handler

import (
	"net/http"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
)

// Me handles GET /api/me: the identity behind the access token.
func Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Access token is required", requestID)
		return
	}
	response.Success(w, http.StatusOK, identity, requestID)
}
