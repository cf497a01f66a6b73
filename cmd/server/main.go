package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnadoodle/planner/internal/api"
	"github.com/learnadoodle/planner/internal/auth"
	"github.com/learnadoodle/planner/internal/child"
	"github.com/learnadoodle/planner/internal/config"
	"github.com/learnadoodle/planner/internal/database"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
	"github.com/learnadoodle/planner/internal/invite"
	"github.com/learnadoodle/planner/internal/planner"
	"github.com/learnadoodle/planner/internal/refresher"
	"github.com/learnadoodle/planner/internal/search"
	"github.com/learnadoodle/planner/internal/supabase"
	"github.com/learnadoodle/planner/internal/syllabus"
	"github.com/learnadoodle/planner/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "learnadoodle-planner", cfg.Version, cfg.OTelEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := database.New(ctx, cfg.DatabaseURL, database.Options{
		Retries: cfg.ConnectRetries,
		Backoff: cfg.ConnectBackoff,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sb, err := supabase.New(supabase.Config{
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseKey,
		Timeout:    cfg.SupabaseTimeout,
	})
	if err != nil {
		slog.Error("invalid supabase configuration", "error", err)
		db.Close()
		os.Exit(1)
	}
	if err := sb.WaitReady(ctx, cfg.ConnectRetries, cfg.ConnectBackoff); err != nil {
		slog.Warn("supabase not reachable at startup; health will report degraded", "error", err)
	}

	familyRepo := family.NewRepository(db.Pool())
	eventRepo := event.NewRepository(db.Pool())
	inviteRepo := invite.NewRepository(db.Pool())
	sectionRepo := syllabus.NewRepository(db.Pool())

	resolver := family.NewResolver(familyRepo, cfg.CacheTTL)
	plannerSvc := planner.NewService(resolver, eventRepo, sb)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:       db,
		SupabasePinger: sb,
		Version:        cfg.Version,
		OpenAPISpec:    api.OpenAPISpec,
		Auth:           auth.NewService(cfg.JWTSecret, sb),
		Families:       resolver,
		FamilyRepo:     familyRepo,
		Syllabus:       syllabus.NewService(sb, sectionRepo),
		Planner:        plannerSvc,
		Search:         search.NewAggregator(sb),
		Overview:       child.NewService(familyRepo, eventRepo),
		Invites:        invite.NewService(inviteRepo, familyRepo, resolver, cfg.BcryptCost, cfg.InviteTTL),
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		TrustProxy:     cfg.TrustProxy,
		Now:            time.Now,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		refresher.New(eventRepo, plannerSvc, cfg.RefreshInterval, cfg.RefreshWindow).Start(refreshCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting planner server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		exitCode = 1
	}

	stopRefresh()
	<-refreshDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		exitCode = 1
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}

	if exitCode != 0 {
		db.Close()
		os.Exit(exitCode)
	}
	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
