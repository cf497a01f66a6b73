package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db       Pinger
	supabase Pinger
	version  string
}

// NewHealthHandler creates a new HealthHandler. A nil pinger reports disconnected.
func NewHealthHandler(db, supabase Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, supabase: supabase, version: version}
}

type dependencyStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Database dependencyStatus `json:"database"`
	Supabase dependencyStatus `json:"supabase"`
}

// ServeHTTP reports "healthy" when every dependency answers, "degraded" otherwise.
// The status code is 200 either way.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	var data healthData
	var g errgroup.Group
	g.Go(func() error {
		data.Database.Connected = ping(ctx, h.db)
		return nil
	})
	g.Go(func() error {
		data.Supabase.Connected = ping(ctx, h.supabase)
		return nil
	})
	_ = g.Wait()

	data.Version = h.version
	data.Status = "healthy"
	if !data.Database.Connected || !data.Supabase.Connected {
		data.Status = "degraded"
	}

	response.Success(w, http.StatusOK, data, requestID)
}

func ping(ctx context.Context, p Pinger) bool {
	return p != nil && p.Ping(ctx) == nil
}
