package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/episodarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalTracked  int            `json:"total_tracked"`
	Watching      int            `json:"watching"`
	Waiting       int            `json:"waiting"`
	Finished      int            `json:"finished"`
	TrackedByType map[string]int `json:"tracked_by_type"`
	Users         int            `json:"users"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := h.db.ListAllProgress()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list progress rows")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalTracked:  len(rows),
		TrackedByType: make(map[string]int),
	}

	users := make(map[string]bool)
	for _, row := range rows {
		switch row.Status {
		case models.StatusWatching:
			response.Watching++
		case models.StatusWaiting:
			response.Waiting++
		case models.StatusFinished:
			response.Finished++
		}

		response.TrackedByType[string(row.MediaType)]++
		users[row.UserID] = true
	}
	response.Users = len(users)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
