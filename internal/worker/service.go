// Package worker provides the HTTP service for pathofgreatness.
package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/leo-guinan/pathofgreatness/internal/config"
	"github.com/leo-guinan/pathofgreatness/internal/journey"
	"github.com/leo-guinan/pathofgreatness/internal/worker/sse"
)

// Service wires the journey engine to the HTTP surface.
type Service struct {
	version     string
	config      *config.Config
	engine      *journey.Engine
	broadcaster *sse.Broadcaster
	router      chi.Router
	server      *http.Server
	startTime   time.Time
}

// NewService creates the HTTP service and builds its routes.
func NewService(version string, cfg *config.Config, engine *journey.Engine) *Service {
	svc := &Service{
		version:     version,
		config:      cfg,
		engine:      engine,
		broadcaster: sse.NewBroadcaster(),
		router:      chi.NewRouter(),
		startTime:   time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Router exposes the configured router, mainly for tests.
func (s *Service) Router() chi.Router {
	return s.router
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleCreateSession)
		r.Get("/session/{sessionID}", s.handleGetSession)
		r.Delete("/session/{sessionID}", s.handleDeleteSession)
		r.Post("/transition", s.handleTransition)
		r.Get("/cost/{sessionID}", s.handleGetCost)
		r.Get("/timeline/{sessionID}", s.handleGetTimeline)
		r.Get("/health", s.handleHealth)
		r.Get("/events", s.broadcaster.ServeHTTP)
	})

	s.router.Get("/", serveIndex)
	s.router.Get("/static/*", serveAssets)
}

// ListenAndServe runs the HTTP server until the context is canceled, then
// shuts down gracefully.
func (s *Service) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", s.config.ListenAddr).
			Str("version", s.version).
			Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Dur("uptime", time.Since(s.startTime)).Msg("HTTP server stopped")
		return nil
	}
}
