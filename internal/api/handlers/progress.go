package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/episodarr/internal/api/middleware"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressHandler updates the signed-in user's watch progress. A progress
// change shifts the episode cache key, so the next episode check for the
// show recomputes instead of serving a stale badge.
type ProgressHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(db *models.Database, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{
		db:     db,
		logger: logger,
	}
}

// ProgressRequest is the progress-update payload
type ProgressRequest struct {
	TMDBID             int                `json:"tmdbId"`
	MediaType          models.MediaType   `json:"mediaType"`
	Status             models.WatchStatus `json:"status"`
	LastWatchedSeason  *int               `json:"lastWatchedSeason"`
	LastWatchedEpisode *int               `json:"lastWatchedEpisode"`
}

// ServeHTTP handles the progress-update endpoint
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if payload.TMDBID <= 0 {
		http.Error(w, "tmdbId must be a positive integer", http.StatusBadRequest)
		return
	}
	if payload.MediaType != models.MediaTypeMovie && payload.MediaType != models.MediaTypeTV {
		http.Error(w, "mediaType must be movie or tv", http.StatusBadRequest)
		return
	}
	if !payload.Status.IsValid() {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	if payload.MediaType == models.MediaTypeMovie &&
		(payload.LastWatchedSeason != nil || payload.LastWatchedEpisode != nil) {
		http.Error(w, "season/episode progress only applies to tv", http.StatusBadRequest)
		return
	}

	progress := &models.WatchProgress{
		UserID:             userID,
		TMDBID:             payload.TMDBID,
		MediaType:          payload.MediaType,
		Status:             payload.Status,
		LastWatchedSeason:  payload.LastWatchedSeason,
		LastWatchedEpisode: payload.LastWatchedEpisode,
		LastWatchedAt:      time.Now(),
	}

	if err := h.db.UpsertProgress(progress); err != nil {
		if errors.Is(err, models.ErrProgressPairing) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to upsert progress")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"tmdb_id": payload.TMDBID,
		"status":  payload.Status,
	}).Info("Updated watch progress")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}
