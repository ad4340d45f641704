package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/episodarr/internal/config"
	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

const baseURL = "https://api.themoviedb.org/3"

// GenreAnimation is the TMDb genre id for animation, shared by movies and TV
const GenreAnimation = 16

// Client handles communication with the TMDb API
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDb API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDb API key is required")
	}

	return &Client{
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// doRequest performs an authenticated GET against the TMDb API, retrying
// transient failures, and decodes the JSON response into result
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	fullURL := baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	c.logger.WithField("url", fullURL).Debug("Making TMDb API request")

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}

			// TMDb v4 bearer token authentication
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(fmt.Errorf("not found: %s", path))
			}
			if resp.StatusCode == http.StatusUnauthorized {
				return retry.Unrecoverable(fmt.Errorf("invalid TMDb API key"))
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				bodyBytes, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
			}

			if result != nil {
				if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
					return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
				}
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// GetShow fetches top-level TV show metadata
func (c *Client) GetShow(ctx context.Context, showID int) (*Show, error) {
	var show Show
	if err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", showID), nil, &show); err != nil {
		return nil, fmt.Errorf("failed to fetch show %d: %w", showID, err)
	}
	return &show, nil
}

// GetSeason fetches one season of a show, including its episode list
func (c *Client) GetSeason(ctx context.Context, showID, seasonNumber int) (*Season, error) {
	var season Season
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if err := c.doRequest(ctx, path, nil, &season); err != nil {
		return nil, fmt.Errorf("failed to fetch show %d season %d: %w", showID, seasonNumber, err)
	}
	return &season, nil
}

// SearchTV searches for TV shows by title
func (c *Client) SearchTV(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var response SearchResponse
	if err := c.doRequest(ctx, "/search/tv", params, &response); err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", query, err)
	}
	return response.Results, nil
}
