package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"vaultlink-go/internal/auth"
	"vaultlink-go/internal/config"
	"vaultlink-go/internal/database"
	"vaultlink-go/internal/files"
	"vaultlink-go/internal/sharelink"
	"vaultlink-go/internal/storage"
)

// Server represents the HTTP server and its dependencies
type Server struct {
	config      *config.Config
	db          *database.DB
	provider    storage.Provider
	authService *auth.Service
	linkHandler *sharelink.Handler
	purgeWorker *sharelink.PurgeWorker
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, db *database.DB) (*Server, error) {
	// Storage provider for file bytes
	provider, err := storage.NewProvider(storage.Config{
		Provider:   cfg.Storage.Provider,
		LocalPath:  cfg.Storage.LocalPath,
		ProjectID:  cfg.Storage.ProjectID,
		BucketName: cfg.Storage.BucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage provider: %w", err)
	}

	// Initialize repositories
	linkRepo := sharelink.NewPostgresRepository(db.DB)
	fileStore := files.NewPostgresStore(db.DB)

	// Initialize services
	authService := auth.NewService(cfg.Secret)
	linkService := sharelink.NewService(linkRepo, fileStore, provider, cfg.BaseURL)

	server := &Server{
		config:      cfg,
		db:          db,
		provider:    provider,
		authService: authService,
		linkHandler: sharelink.NewHandler(linkService),
		purgeWorker: sharelink.NewPurgeWorker(linkService, cfg.PurgeInterval, cfg.PurgeRetention),
	}

	return server, nil
}

// StartWorkers launches background maintenance tied to the given context.
func (s *Server) StartWorkers(ctx context.Context) {
	s.purgeWorker.Start(ctx)
}

// Start initializes and returns the HTTP server
func (s *Server) Start() (*http.Server, error) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		// Streaming large media over slow links outlives any sane
		// write deadline, so none is set; cancellation comes from the
		// client side via the request context.
	}

	log.Info().
		Int("port", s.config.Port).
		Str("env", s.config.Env).
		Msg("starting server")

	return srv, nil
}

// Close releases resources held by the server's dependencies.
func (s *Server) Close() error {
	s.purgeWorker.Stop()
	return s.provider.Close()
}

// sendJSON sends a JSON response with consistent formatting
func (s *Server) sendJSON(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: success,
		Message: message,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// healthHandler reports database health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	s.sendJSON(w, http.StatusOK, true, "Health check successful", health)
}
