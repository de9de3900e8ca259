package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/web/handlers"
	"github.com/facegate/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	usersHandler := handlers.NewUsersHandler(
		s.deps.Store.Users(), s.deps.Index, s.deps.Matcher, s.deps.Engine, s.deps.Images,
	)
	facesHandler := handlers.NewFacesHandler(s.deps.Engine, s.deps.Matcher, s.deps.Tokens)
	tokensHandler := handlers.NewTokensHandler(s.deps.Tokens, s.deps.Store.Users())
	imagesHandler := handlers.NewImagesHandler(s.deps.Images)
	historyHandler := handlers.NewHistoryHandler(s.deps.Store.History())

	// Health check (no auth, no audit)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Audit(s.deps.Store.History()))

		// Public routes: the kiosk in front of the door is anonymous until
		// a face matches.
		r.Post("/users", usersHandler.Create)
		r.Post("/faces/detect", facesHandler.Detect)
		r.Post("/faces/compare", facesHandler.Compare)
		r.Post("/tokens", tokensHandler.Create)
		r.Post("/auth/login", tokensHandler.Login)

		// Management routes require the API token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.config.Server.APIToken))

			r.Get("/users", usersHandler.List)
			r.Get("/users/{id}", usersHandler.Get)
			r.Put("/users/{id}", usersHandler.Update)
			r.Delete("/users/{id}", usersHandler.Delete)

			r.Get("/images/*", imagesHandler.Serve)

			r.Get("/history", historyHandler.List)
		})
	})
}
