package models

import "time"

// EpisodeInfo is the derived per-show episode state shown on the watchlist.
// It is computed on demand, cached with a TTL and never persisted.
type EpisodeInfo struct {
	HasNewEpisodes       bool       `json:"hasNewEpisodes"`
	NewEpisodeCount      int        `json:"newEpisodeCount"`
	NextEpisodeDate      *time.Time `json:"nextEpisodeDate"`
	Countdown            *string    `json:"countdown"`
	LatestEpisodeAirDate *time.Time `json:"latestEpisodeAirDate"`
}

// MappingSegment maps a contiguous, inclusive episode range within one season
// to a single AniList entry.
type MappingSegment struct {
	StartEpisode int `json:"startEpisode"`
	EndEpisode   int `json:"endEpisode"`
	AnilistID    int `json:"anilistId"`
}
