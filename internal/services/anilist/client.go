package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const graphqlURL = "https://graphql.anilist.co"

// searchQuery finds anime entries matching a title, with the fields the
// segment resolver needs: episode counts and start dates.
const searchQuery = `
query ($search: String) {
  Page(page: 1, perPage: 10) {
    media(search: $search, type: ANIME) {
      id
      title {
        english
        romaji
        native
      }
      episodes
      format
      startDate {
        year
        month
        day
      }
    }
  }
}`

// Client handles communication with the AniList GraphQL API
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new AniList client. The API needs no authentication
// for public queries.
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type searchResponse struct {
	Data struct {
		Page struct {
			Media []Candidate `json:"media"`
		} `json:"page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search queries AniList for anime entries matching the given title
func (c *Client) Search(ctx context.Context, title string) ([]Candidate, error) {
	reqBody := graphqlRequest{
		Query:     searchQuery,
		Variables: map[string]interface{}{"search": title},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	c.logger.WithField("title", title).Debug("Searching AniList")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphqlURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AniList request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("AniList returned error: %s", result.Errors[0].Message)
	}

	c.logger.WithFields(logrus.Fields{
		"title": title,
		"count": len(result.Data.Page.Media),
	}).Debug("AniList search completed")

	return result.Data.Page.Media, nil
}
