package tmdb

import "time"

// Genre is a TMDb genre entry
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeasonSummary is the per-season summary embedded in a show response
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
	AirDate      string `json:"air_date"`
}

// Show is the response from GET /tv/{id}
type Show struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	OriginalName     string          `json:"original_name"`
	Overview         string          `json:"overview"`
	Status           string          `json:"status"`
	FirstAirDate     string          `json:"first_air_date"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	Genres           []Genre         `json:"genres"`
	Seasons          []SeasonSummary `json:"seasons"`
}

// IsAnimation reports whether the show carries the animation genre
func (s *Show) IsAnimation() bool {
	for _, genre := range s.Genres {
		if genre.ID == GenreAnimation {
			return true
		}
	}
	return false
}

// Season is the response from GET /tv/{id}/season/{n}
type Season struct {
	ID           int       `json:"id"`
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is a single episode within a season response
type Episode struct {
	ID            int    `json:"id"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date"`
	Overview      string `json:"overview"`
}

// ParseAirDate parses an episode air date. The second return value is false
// when the date is absent, malformed, or the zero/epoch placeholder TMDb
// sometimes emits; such dates are "unknown", never "aired".
func ParseAirDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if t.IsZero() || t.Unix() == 0 {
		return time.Time{}, false
	}
	return t, true
}

// SearchResult is one result from GET /search/tv
type SearchResult struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	FirstAirDate string `json:"first_air_date"`
	Overview     string `json:"overview"`
}

// SearchResponse is the paged search envelope
type SearchResponse struct {
	Page         int            `json:"page"`
	TotalResults int            `json:"total_results"`
	TotalPages   int            `json:"total_pages"`
	Results      []SearchResult `json:"results"`
}
