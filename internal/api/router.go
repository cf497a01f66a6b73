package api

import (
	_ "embed"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/learnadoodle/planner/internal/api/handler"
	"github.com/learnadoodle/planner/internal/api/middleware"
)

// OpenAPISpec is the API description served at /openapi.json.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// RouterDeps holds all dependencies needed by the router. Route groups whose
// services are nil are not mounted.
type RouterDeps struct {
	DBPinger       handler.Pinger
	SupabasePinger handler.Pinger
	Version        string
	OpenAPISpec    []byte

	Auth           middleware.Authenticator
	Families       middleware.FamilyResolver
	FamilyRepo     FamilyRepository
	Syllabus       handler.SyllabusService
	Planner        handler.PlannerService
	Search         handler.Searcher
	Overview       handler.OverviewService
	Invites        handler.InviteService
	AllowedOrigins []string
	RateLimit      int
	// TrustProxy honours X-Forwarded-For / X-Real-IP. Leave it off unless a
	// proxy in front of the server overwrites those headers.
	TrustProxy bool
	Now        func() time.Time
}

// FamilyRepository is what the syllabus and family handlers read.
type FamilyRepository interface {
	handler.ChildChecker
	handler.FamilyReader
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(deps.RateLimit).Handler)
	}

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.SupabasePinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	calendarHandler := handler.NewCalendarHandler(deps.Now)
	syllabusPreview := handler.NewSyllabusHandler(nil, nil)

	r.Route("/api", func(r chi.Router) {
		// Public: calendar arithmetic, outline preview and invite preview.
		r.Get("/calendar/week", calendarHandler.Week)
		r.Post("/syllabus/preview", syllabusPreview.Preview)
		if deps.Invites != nil {
			r.Get("/invites/preview/{token}", handler.NewInviteHandler(deps.Invites).Preview)
		}

		if deps.Auth == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth))

			r.Get("/me", handler.Me)

			if deps.Planner != nil {
				eventHandler := handler.NewEventHandler(deps.Planner)
				r.Route("/events/{id}", func(r chi.Router) {
					r.Post("/complete", eventHandler.Complete)
					r.Post("/outcome", eventHandler.Outcome)
					r.Patch("/reschedule", eventHandler.Reschedule)
				})

				plannerHandler := handler.NewPlannerHandler(deps.Planner)
				r.Post("/planner/shift_week", plannerHandler.ShiftWeek)
				r.Post("/planner/freeze_week", plannerHandler.FreezeWeek)
				r.Get("/year/sync_blackouts", plannerHandler.SyncBlackouts)
			}

			if deps.Overview != nil {
				childHandler := handler.NewChildHandler(deps.Overview)
				r.Get("/child/overview", childHandler.Overview)
				r.Get("/tutor/overview", childHandler.TutorOverview)
				r.Get("/dashboard/child_progress", childHandler.Progress)
			}

			if deps.Invites != nil {
				inviteHandler := handler.NewInviteHandler(deps.Invites)
				r.Post("/invites", inviteHandler.Create)
				r.Get("/invites", inviteHandler.List)
				r.Post("/invites/accept", inviteHandler.Accept)
			}

			if deps.Families == nil {
				return
			}

			// Family-scoped routes.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireFamily(deps.Families))

				if deps.Search != nil {
					r.Get("/search", handler.NewSearchHandler(deps.Search).ServeHTTP)
				}
				if deps.FamilyRepo != nil {
					r.Get("/family/members", handler.NewFamilyHandler(deps.FamilyRepo).Members)
				}
				if deps.Syllabus != nil && deps.FamilyRepo != nil {
					syllabusHandler := handler.NewSyllabusHandler(deps.Syllabus, deps.FamilyRepo)
					r.Post("/syllabus/import", syllabusHandler.Import)
					r.Post("/syllabus/sections", syllabusHandler.Sections)
				}
			})
		})
	})

	return r
}
