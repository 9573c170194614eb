package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// JWT verification only; most link routes stay anonymous and the
	// handlers pick an identity off the context when one is present.
	tokenAuth := s.authService.GetAuth()
	r.Use(jwtauth.Verifier(tokenAuth))

	if s.config.Env == "dev" || s.config.Env == "development" {
		r.Use(middleware.NoCache)
	}

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Range"},
		ExposedHeaders:   []string{"Content-Range", "Accept-Ranges", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Group(func(r chi.Router) {
		// Health check
		r.Get("/health", s.healthHandler)

		// Link creation and consumption
		r.Post("/share", s.linkHandler.HandleCreateLink)
		r.Route("/shared", func(r chi.Router) {
			r.Get("/{token}", s.linkHandler.HandleGetMetadata)
			r.Get("/{token}/download", s.linkHandler.HandleDownload)
			r.Post("/{token}/access", s.linkHandler.HandleRegisterAccess)
			r.Delete("/{token}", s.linkHandler.HandleRevoke)
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(tokenAuth)) // Require authentication

		// Per-file link management for the owning client
		r.Route("/shared/file", func(r chi.Router) {
			r.Get("/{fileID}", s.linkHandler.HandleActiveLink)
			r.Delete("/{fileID}", s.linkHandler.HandleDeleteForFile)
		})
	})

	return r
}
