package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/episodarr/internal/controllers"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron                 *cron.Cron
	episodeCtrl          *controllers.EpisodeController
	db                   *models.Database
	refreshIntervalHours int
	logger               *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	episodeCtrl *controllers.EpisodeController,
	db *models.Database,
	refreshIntervalHours int,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:                 cron.New(),
		episodeCtrl:          episodeCtrl,
		db:                   db,
		refreshIntervalHours: refreshIntervalHours,
		logger:               logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Periodically recompute episode data for every tracked TV show so
	// watchlist requests are served from a warm cache
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %dh", s.refreshIntervalHours), func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run an initial refresh immediately
	go s.runRefresh()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runRefresh executes the episode data refresh job
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled episode refresh")
	ctx := context.Background()

	users, err := s.db.ListUserIDs()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list users")
		return
	}

	if len(users) == 0 {
		s.logger.Debug("No users with tracked shows")
		return
	}

	for _, userID := range users {
		episodeData, err := s.episodeCtrl.CheckAllShows(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Episode refresh failed for user")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"shows":   len(episodeData),
		}).Debug("Refreshed episode data")
	}

	s.logger.Info("Episode refresh completed")
}
