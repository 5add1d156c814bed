package web

import (
	"github.com/go-chi/chi/v5"

	"faceid/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Extractor)
	facesHandler := handlers.NewFacesHandler(s.deps.Registry, s.logger)
	matchHandler := handlers.NewMatchHandler(s.deps.Matcher, s.deps.Registry, s.deps.Threshold, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		r.Get("/faces", facesHandler.List)
		r.Post("/faces", facesHandler.Create)
		r.Delete("/faces", facesHandler.Clear)
		r.Patch("/faces/{id}", facesHandler.Rename)
		r.Delete("/faces/{id}", facesHandler.Delete)

		r.Post("/match", matchHandler.Match)
		r.Get("/stats", matchHandler.Stats)
		r.Get("/threshold/presets", matchHandler.Presets)
	})
}
