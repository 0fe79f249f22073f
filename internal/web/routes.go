package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/listingpress/listingpress/internal/pipeline"
	"github.com/listingpress/listingpress/internal/web/handlers"
)

// setupRoutes wires the API routes.
func (s *Server) setupRoutes(drafts handlers.DraftStore, blobs handlers.BlobReader, pipe *pipeline.Pipeline) {
	draftHandler := handlers.NewDraftHandler(drafts, blobs, pipe, s.jobManager, s.logger)

	s.router.Get("/healthz", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", draftHandler.Create)
			r.Route("/{draftId}", func(r chi.Router) {
				r.Get("/", draftHandler.Get)
				r.Post("/generate", draftHandler.Generate)
				r.Get("/events", draftHandler.Events)
				r.Get("/artifact", draftHandler.Artifact)
			})
		})
	})
}
