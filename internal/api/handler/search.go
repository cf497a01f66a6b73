package handler

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/search"
)

const maxQueryRunes = 100

// Searcher runs the family-scoped global search.
type Searcher interface {
	Search(ctx context.Context, familyID uuid.UUID, query string) ([]search.Hit, error)
}

// SearchHandler handles GET /api/search.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// ServeHTTP searches the caller's family for ?q=.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query().Get("q")
	if utf8.RuneCountInString(q) > maxQueryRunes {
		response.Err(w, http.StatusBadRequest, response.CodeValidation, "q must be at most 100 characters", requestID)
		return
	}

	hits, err := h.searcher.Search(r.Context(), middleware.GetFamilyID(r.Context()), q)
	if err != nil {
		serviceError(w, r, err, "search")
		return
	}

	response.SuccessList(w, hits, len(hits), requestID)
}
