package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/episodarr/internal/api/handlers"
	"github.com/amaumene/episodarr/internal/api/middleware"
	"github.com/amaumene/episodarr/internal/config"
	"github.com/amaumene/episodarr/internal/controllers"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	db          *models.Database
	episodeCtrl *controllers.EpisodeController
	mappingCtrl *controllers.MappingController
	logger      *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	db *models.Database,
	episodeCtrl *controllers.EpisodeController,
	mappingCtrl *controllers.MappingController,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		db:          db,
		episodeCtrl: episodeCtrl,
		mappingCtrl: mappingCtrl,
		logger:      logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Status endpoint
	statusHandler := handlers.NewStatusHandler(s.db, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	// Watchlist episode data (authenticated)
	episodesHandler := handlers.NewEpisodesHandler(s.episodeCtrl, s.logger)
	mux.Handle("/api/episodes", middleware.Auth(episodesHandler))

	// Watch progress updates (authenticated)
	progressHandler := handlers.NewProgressHandler(s.db, s.logger)
	mux.Handle("/api/progress", middleware.Auth(progressHandler))

	// Anime segment mapping
	mappingHandler := handlers.NewMappingHandler(s.mappingCtrl, s.logger)
	mux.HandleFunc("/api/map", mappingHandler.ServeHTTP)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
