package controllers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/amaumene/episodarr/internal/cache"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/amaumene/episodarr/internal/services/tmdb"
	"github.com/amaumene/episodarr/internal/utils"
	"github.com/sirupsen/logrus"
)

// MetadataClient is the subset of the TMDb client the episode engine needs
type MetadataClient interface {
	GetShow(ctx context.Context, showID int) (*tmdb.Show, error)
	GetSeason(ctx context.Context, showID, seasonNumber int) (*tmdb.Season, error)
}

// EpisodeController reconciles a show's season/episode structure against a
// user's last-watched position and produces the per-show EpisodeInfo shown
// on the watchlist
type EpisodeController struct {
	db         *models.Database
	tmdb       MetadataClient
	cache      *cache.Cache[*models.EpisodeInfo]
	windowDays int
	logger     *logrus.Logger

	// now is captured once per reconciliation so every aired/upcoming
	// comparison in one invocation shares the same boundary
	now func() time.Time

	// forceFullScan disables the early exit in the season scan; the output
	// must be identical either way
	forceFullScan bool
}

// NewEpisodeController creates a new episode controller
func NewEpisodeController(
	db *models.Database,
	tmdbClient MetadataClient,
	episodeCache *cache.Cache[*models.EpisodeInfo],
	windowDays int,
	logger *logrus.Logger,
) *EpisodeController {
	return &EpisodeController{
		db:         db,
		tmdb:       tmdbClient,
		cache:      episodeCache,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// airedEpisode is an episode with a resolved air date
type airedEpisode struct {
	seasonNumber  int
	episodeNumber int
	airDate       time.Time
}

// CheckEpisodesForShow computes the EpisodeInfo for one show against the
// given last-watched position. Both position values nil means no progress
// recorded. It returns nil when the show has concluded or when any upstream
// fetch fails; fetch failures are logged, never propagated, so one show
// cannot block watchlist rendering for the rest.
func (c *EpisodeController) CheckEpisodesForShow(ctx context.Context, showID int, lastSeason, lastEpisode *int) *models.EpisodeInfo {
	show, err := c.tmdb.GetShow(ctx, showID)
	if err != nil {
		c.logger.WithError(err).WithField("show_id", showID).Warn("Failed to fetch show, skipping episode check")
		return nil
	}

	// Nothing new can air for a concluded show
	if show.Status == models.ShowStatusEnded {
		return nil
	}

	// Season 0 is specials; scan real seasons most recent first so the
	// newest season's upcoming episode wins
	seasons := make([]tmdb.SeasonSummary, 0, len(show.Seasons))
	for _, summary := range show.Seasons {
		if summary.SeasonNumber > 0 {
			seasons = append(seasons, summary)
		}
	}
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber > seasons[j].SeasonNumber
	})

	now := c.now()
	windowStart := now.Add(-time.Duration(c.windowDays) * 24 * time.Hour)

	info := &models.EpisodeInfo{}
	var latestAirDate *time.Time
	var nextEpisodeDate *time.Time

	for _, summary := range seasons {
		season, err := c.tmdb.GetSeason(ctx, showID, summary.SeasonNumber)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"show_id": showID,
				"season":  summary.SeasonNumber,
			}).Warn("Failed to fetch season, skipping episode check")
			return nil
		}

		aired, upcoming := partitionEpisodes(season.Episodes, now)

		for _, episode := range aired {
			// New = inside the trailing window AND ahead of the user's position
			if episode.airDate.Before(windowStart) {
				continue
			}
			if !aheadOfProgress(episode.seasonNumber, episode.episodeNumber, lastSeason, lastEpisode) {
				continue
			}
			info.NewEpisodeCount++
			if latestAirDate == nil || episode.airDate.After(*latestAirDate) {
				airDate := episode.airDate
				latestAirDate = &airDate
			}
		}

		// Only the first season (in descending order) with an upcoming
		// episode contributes the next air date
		if nextEpisodeDate == nil && len(upcoming) > 0 {
			airDate := upcoming[0].airDate
			nextEpisodeDate = &airDate
		}

		// Scanning older seasons cannot change either value once both are
		// known, so stop early
		if !c.forceFullScan && info.NewEpisodeCount > 0 && nextEpisodeDate != nil {
			break
		}
	}

	info.HasNewEpisodes = info.NewEpisodeCount > 0
	info.LatestEpisodeAirDate = latestAirDate
	if nextEpisodeDate != nil {
		info.NextEpisodeDate = nextEpisodeDate
		countdown := utils.FormatCountdown(now, *nextEpisodeDate)
		info.Countdown = &countdown
	}

	return info
}

// partitionEpisodes splits a season's episodes into aired (valid air date
// <= now, sorted descending) and upcoming (valid air date > now, sorted
// ascending so index 0 is the soonest). Episodes with unknown air dates
// belong to neither group.
func partitionEpisodes(episodes []tmdb.Episode, now time.Time) (aired, upcoming []airedEpisode) {
	for _, episode := range episodes {
		airDate, ok := tmdb.ParseAirDate(episode.AirDate)
		if !ok {
			continue
		}
		resolved := airedEpisode{
			seasonNumber:  episode.SeasonNumber,
			episodeNumber: episode.EpisodeNumber,
			airDate:       airDate,
		}
		if airDate.After(now) {
			upcoming = append(upcoming, resolved)
		} else {
			aired = append(aired, resolved)
		}
	}

	sort.Slice(aired, func(i, j int) bool {
		return aired[i].airDate.After(aired[j].airDate)
	})
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].airDate.Before(upcoming[j].airDate)
	})
	return aired, upcoming
}

// aheadOfProgress reports whether an episode is strictly ahead of the
// user's last-watched position. No recorded progress means every episode
// is ahead.
func aheadOfProgress(seasonNumber, episodeNumber int, lastSeason, lastEpisode *int) bool {
	if lastSeason == nil || lastEpisode == nil {
		return true
	}
	if seasonNumber > *lastSeason {
		return true
	}
	return seasonNumber == *lastSeason && episodeNumber > *lastEpisode
}

// EpisodeCacheKey derives the cache key for a progress row. Status and the
// last-watched position are part of the key, so any progress change yields
// a different key and the next request recomputes instead of serving a
// stale badge.
func EpisodeCacheKey(row *models.WatchProgress) string {
	return fmt.Sprintf("episode-data:%s:%d:%s:%s",
		row.UserID, row.TMDBID, row.Status,
		progressKey(row.LastWatchedSeason, row.LastWatchedEpisode))
}

func progressKey(season, episode *int) string {
	s := "none"
	if season != nil {
		s = strconv.Itoa(*season)
	}
	e := "none"
	if episode != nil {
		e = strconv.Itoa(*episode)
	}
	return s + "-" + e
}

// CheckAllShows looks up or computes EpisodeInfo for every TV show the user
// tracks, sequentially, and returns a mapping from show id to EpisodeInfo.
// Shows with no information available are omitted, not errors.
func (c *EpisodeController) CheckAllShows(ctx context.Context, userID string) (map[int]*models.EpisodeInfo, error) {
	rows, err := c.db.ListProgressByUserAndType(userID, models.MediaTypeTV)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked shows: %w", err)
	}

	result := make(map[int]*models.EpisodeInfo)
	for _, row := range rows {
		key := EpisodeCacheKey(row)
		if info, ok := c.cache.Get(key); ok {
			result[row.TMDBID] = info
			continue
		}

		info := c.CheckEpisodesForShow(ctx, row.TMDBID, row.LastWatchedSeason, row.LastWatchedEpisode)
		if info == nil {
			continue
		}
		c.cache.Set(key, info)
		result[row.TMDBID] = info
	}

	return result, nil
}
