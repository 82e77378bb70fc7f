// Package server exposes timeline generation, progress tracking, AI
// enhancement and document export over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chronosec/internal/advisor"
	"chronosec/internal/deadlines"
	"chronosec/internal/metrics"
	"chronosec/internal/progress"
	"chronosec/internal/session"
)

// Options configures the HTTP server.
type Options struct {
	Addr              string
	RequestTimeout    time.Duration
	ReadHeaderTimeout time.Duration
	// Tracing wraps the router with OpenTelemetry instrumentation.
	Tracing     bool
	ServiceName string
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Sessions *session.Manager
	// Hub feeds the websocket stream. Optional.
	Hub     *progress.Hub
	Advisor *advisor.Advisor
	// Deadlines sets the due-soon window. Optional.
	Deadlines *deadlines.Tracker
	Logger    *slog.Logger
}

// Server is the chronosec HTTP API.
type Server struct {
	Router *chi.Mux

	opts      Options
	sessions  *session.Manager
	hub       *progress.Hub
	advisor   *advisor.Advisor
	deadlines *deadlines.Tracker
	logger    *slog.Logger
	now       func() time.Time
}

// New builds the router and registers every route.
func New(deps Deps, opts Options) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.New("server: session manager is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.New(nil, advisor.Config{})
	}
	if deps.Deadlines == nil {
		deps.Deadlines = deadlines.NewTracker(deadlines.Config{})
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "chronosec"
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	s := &Server{
		Router:    chi.NewRouter(),
		opts:      opts,
		sessions:  deps.Sessions,
		hub:       deps.Hub,
		advisor:   deps.Advisor,
		deadlines: deps.Deadlines,
		logger:    deps.Logger,
		now:       time.Now,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.Router
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	if s.opts.Tracing {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, s.opts.ServiceName)
		})
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/api/sessions/{id}/ws", s.handleProgressWS)

	r.Group(func(r chi.Router) {
		r.Use(TimeoutMiddleware(s.opts.RequestTimeout))

		r.Get("/api/catalog", s.handleCatalog)
		r.Get("/api/rules", s.handleRules)
		r.Post("/api/timeline", s.handleGenerate)

		r.Route("/api/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/views/{view}", s.handleView)
			r.Put("/steps/{stepID}/complete", s.handleComplete(true))
			r.Delete("/steps/{stepID}/complete", s.handleComplete(false))
			r.Get("/deadlines", s.handleDeadlines)
		})

		r.Post("/api/ai/enhance-timeline", s.handleEnhance)
		r.Post("/api/ai/analyze", s.handleAnalyze)
		r.Post("/api/ai/compliance-check", s.handleCompliance)

		r.Post("/api/export/{format}", s.handleExport)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down server")
	return srv.Shutdown(shutdownCtx)
}
