package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/learnadoodle/planner/internal/api"
	"github.com/learnadoodle/planner/internal/api/handler"
	"github.com/learnadoodle/planner/internal/auth"
)

type openAPISpec struct {
	Paths map[string]map[string]any `json:"paths"`
}

// Embedding a nil interface satisfies it; the route tests never call through.
type (
	noopSyllabus struct{ handler.SyllabusService }
	noopPlanner  struct{ handler.PlannerService }
	noopSearch   struct{ handler.Searcher }
	noopOverview struct{ handler.OverviewService }
	noopInvites  struct{ handler.InviteService }
	noopFamilies struct{ api.FamilyRepository }
)

type noopResolver struct{}

func (noopResolver) FamilyID(context.Context, uuid.UUID) (uuid.UUID, error) { return uuid.New(), nil }

type staticAuth struct{}

func (staticAuth) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{UserID: uuid.New(), Email: "me@example.com"}, nil
}

func fullRouter() *chi.Mux {
	return api.NewRouter(api.RouterDeps{
		OpenAPISpec: api.OpenAPISpec,
		Version:     "test",
		Auth:        staticAuth{},
		Families:    noopResolver{},
		FamilyRepo:  noopFamilies{},
		Syllabus:    noopSyllabus{},
		Planner:     noopPlanner{},
		Search:      noopSearch{},
		Overview:    noopOverview{},
		Invites:     noopInvites{},
		RateLimit:   1000,
	})
}

type route struct {
	method string
	path   string
}

func TestOpenAPISpec_RoutesCoverAllPaths(t *testing.T) {
	t.Parallel()

	specJSON, err := yaml.YAMLToJSON(api.OpenAPISpec)
	require.NoError(t, err, "embedded spec must convert to JSON")

	var spec openAPISpec
	require.NoError(t, yaml.Unmarshal(specJSON, &spec))

	var specRoutes []route
	for path, methods := range spec.Paths {
		for method := range methods {
			specRoutes = append(specRoutes, route{method: strings.ToUpper(method), path: path})
		}
	}
	require.NotEmpty(t, specRoutes)

	var chiRoutes []route
	err = chi.Walk(fullRouter(), func(method, routePath string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		normalized := strings.TrimRight(routePath, "/")
		if normalized == "" {
			normalized = "/"
		}
		chiRoutes = append(chiRoutes, route{method: method, path: normalized})
		return nil
	})
	require.NoError(t, err)

	sortRoutes := func(rs []route) {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].path == rs[j].path {
				return rs[i].method < rs[j].method
			}
			return rs[i].path < rs[j].path
		})
	}
	sortRoutes(specRoutes)
	sortRoutes(chiRoutes)

	for _, sr := range specRoutes {
		assert.Contains(t, chiRoutes, sr, fmt.Sprintf("documented route %s %s is not served", sr.method, sr.path))
	}
	for _, cr := range chiRoutes {
		assert.Contains(t, specRoutes, cr, fmt.Sprintf("served route %s %s is not documented", cr.method, cr.path))
	}
}

func TestRouter_AuthBoundary(t *testing.T) {
	t.Parallel()

	router := fullRouter()
	send := func(method, path, token string, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/me", "bad", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/me", "good", "").Code)

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/syllabus/preview", "", `{"text":"Unit 1"}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/calendar/week?date=2025-09-10", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost, "/api/planner/shift_week", "", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/tutor/overview", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/dashboard/child_progress", "", "").Code)

	w := send(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MinimalDeps(t *testing.T) {
	t.Parallel()

	router := api.NewRouter(api.RouterDeps{Version: "test"})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "authenticated routes are not mounted without an authenticator")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	t.Parallel()

	send := func(router http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/syllabus/preview", strings.NewReader(`{"text":"Unit 1"}`))
		req.RemoteAddr = "203.0.113.7:41234"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("untrusted peer cannot rotate buckets", func(t *testing.T) {
		t.Parallel()

		router := api.NewRouter(api.RouterDeps{Version: "test", RateLimit: 2})
		var codes []int
		for i := range 6 {
			codes = append(codes, send(router, fmt.Sprintf("10.0.0.%d", i)))
		}
		assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)
	})

	t.Run("trusted proxy keys on the forwarded client", func(t *testing.T) {
		t.Parallel()

		router := api.NewRouter(api.RouterDeps{Version: "test", RateLimit: 2, TrustProxy: true})
		assert.Equal(t, http.StatusOK, send(router, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, send(router, "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, send(router, "10.0.0.2"), "another client behind the proxy has its own bucket")
	})
}
