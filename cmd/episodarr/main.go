package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amaumene/episodarr/internal/api"
	"github.com/amaumene/episodarr/internal/cache"
	"github.com/amaumene/episodarr/internal/config"
	"github.com/amaumene/episodarr/internal/controllers"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/amaumene/episodarr/internal/scheduler"
	"github.com/amaumene/episodarr/internal/services/anilist"
	"github.com/amaumene/episodarr/internal/services/tmdb"
	"github.com/amaumene/episodarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Episodarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Load anime mapping allow-list
	allowlist, err := utils.LoadAllowlist(cfg.AllowlistFile)
	if err != nil {
		return fmt.Errorf("failed to load allow-list: %w", err)
	}
	logger.WithField("shows", allowlist.Size()).Info("Allow-list loaded")

	// 5. Initialize services
	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDb client: %w", err)
	}
	logger.Info("TMDb client initialized")

	anilistClient := anilist.NewClient(logger)
	logger.Info("AniList client initialized")

	// 6. Initialize controllers
	episodeCache := cache.New[*models.EpisodeInfo](time.Duration(cfg.EpisodeCacheTTLHours) * time.Hour)
	episodeCtrl := controllers.NewEpisodeController(db, tmdbClient, episodeCache, cfg.NewEpisodeWindowDays, logger)

	metadataTTL := time.Duration(cfg.MetadataCacheTTLMinutes) * time.Minute
	mappingCtrl := controllers.NewMappingController(tmdbClient, anilistClient, allowlist, metadataTTL, logger)
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(episodeCtrl, db, cfg.RefreshIntervalHours, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, episodeCtrl, mappingCtrl, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Episodarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Episodarr stopped")
	return nil
}
