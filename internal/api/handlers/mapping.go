package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/episodarr/internal/controllers"
	"github.com/sirupsen/logrus"
)

// MappingHandler handles anime segment-mapping requests
type MappingHandler struct {
	mappingCtrl *controllers.MappingController
	logger      *logrus.Logger
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappingCtrl *controllers.MappingController, logger *logrus.Logger) *MappingHandler {
	return &MappingHandler{
		mappingCtrl: mappingCtrl,
		logger:      logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// ServeHTTP handles the segment-mapping endpoint
func (h *MappingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	showID, err := strconv.Atoi(query.Get("tmdbShowId"))
	if err != nil || showID <= 0 {
		writeError(w, http.StatusBadRequest, "tmdbShowId must be a positive integer")
		return
	}

	seasonNumber := 0
	if raw := query.Get("tmdbSeason"); raw != "" {
		seasonNumber, err = strconv.Atoi(raw)
		if err != nil || seasonNumber <= 0 {
			writeError(w, http.StatusBadRequest, "tmdbSeason must be a positive integer")
			return
		}
	}

	debug := query.Get("debug") == "true" || query.Get("debug") == "1"

	result, err := h.mappingCtrl.Resolve(r.Context(), showID, seasonNumber, debug)
	if err != nil {
		switch {
		case errors.Is(err, controllers.ErrShowNotAllowed):
			writeError(w, http.StatusForbidden, "show is not enabled for mapping")
		case errors.Is(err, controllers.ErrNoMatches):
			writeError(w, http.StatusBadGateway, "no matches found")
		case errors.Is(err, controllers.ErrUpstream):
			h.logger.WithError(err).WithField("show_id", showID).Error("Upstream fetch failed")
			writeError(w, http.StatusBadGateway, "upstream metadata unavailable")
		default:
			h.logger.WithError(err).WithField("show_id", showID).Error("Mapping failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
