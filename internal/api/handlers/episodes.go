package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/episodarr/internal/api/middleware"
	"github.com/amaumene/episodarr/internal/controllers"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/sirupsen/logrus"
)

// EpisodesHandler serves per-show episode data for the signed-in user's
// watchlist
type EpisodesHandler struct {
	episodeCtrl *controllers.EpisodeController
	logger      *logrus.Logger
}

// NewEpisodesHandler creates a new episodes handler
func NewEpisodesHandler(episodeCtrl *controllers.EpisodeController, logger *logrus.Logger) *EpisodesHandler {
	return &EpisodesHandler{
		episodeCtrl: episodeCtrl,
		logger:      logger,
	}
}

// EpisodesResponse maps show ids to their episode data. Shows for which
// no information is available are absent.
type EpisodesResponse struct {
	EpisodeData map[int]*models.EpisodeInfo `json:"episodeData"`
}

// ServeHTTP handles the episode-check endpoint
func (h *EpisodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	episodeData, err := h.episodeCtrl.CheckAllShows(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check episodes")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EpisodesResponse{EpisodeData: episodeData})
}
