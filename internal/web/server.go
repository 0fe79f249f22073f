// Package web hosts the HTTP API for brochure drafts and generation jobs.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/pipeline"
	"github.com/listingpress/listingpress/internal/web/handlers"
	"github.com/listingpress/listingpress/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	jobManager *handlers.JobManager
	logger     zerolog.Logger
}

// NewServer creates a new web server. The pipeline's events are routed to
// the job manager so SSE clients see stage transitions.
func NewServer(host string, port int, drafts handlers.DraftStore, blobs handlers.BlobReader, pipe *pipeline.Pipeline, logger zerolog.Logger) *Server {
	r := chi.NewRouter()

	jobManager := handlers.NewJobManager()
	pipe.OnEvent = func(e pipeline.Event) {
		jobManager.Dispatch(e.DraftID, e.Status, e.Stage, e.Error)
	}

	s := &Server{
		router:     r,
		jobManager: jobManager,
		logger:     logger,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes(drafts, blobs, pipe)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
