package controllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amaumene/episodarr/internal/cache"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/amaumene/episodarr/internal/services/anilist"
	"github.com/amaumene/episodarr/internal/services/tmdb"
	"github.com/amaumene/episodarr/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// CatalogClient is the subset of the AniList client the resolver needs
type CatalogClient interface {
	Search(ctx context.Context, title string) ([]anilist.Candidate, error)
}

var (
	// ErrShowNotAllowed means the show id is not on the mapping allow-list
	ErrShowNotAllowed = errors.New("show is not on the mapping allow-list")
	// ErrNoMatches means the request succeeded but no AniList entries qualify
	ErrNoMatches = errors.New("no matching AniList entries found")
	// ErrUpstream means a TMDb or AniList fetch failed
	ErrUpstream = errors.New("upstream fetch failed")
)

// Mapping sources reported in results
const (
	SourceOverride = "override"        // hand-curated exception table
	SourcePacked   = "anilist-packed"  // date-sorted episode-count packing
	SourceFallback = "anilist-single"  // whole season mapped to one candidate
)

// MappingResult is the resolver's answer for one show season
type MappingResult struct {
	TMDBShowID int                     `json:"tmdbShowId"`
	TMDBSeason int                     `json:"tmdbSeason"`
	Segments   []models.MappingSegment `json:"segments"`
	Source     string                  `json:"source"`
	Debug      *MappingDebug           `json:"debug,omitempty"`
}

// CandidateSummary is one AniList candidate echoed back in debug output
type CandidateSummary struct {
	ID           int    `json:"id"`
	DisplayTitle string `json:"displayTitle"`
	Episodes     int    `json:"episodes"`
	StartDate    string `json:"startDate"`
}

// MappingDebug echoes the inputs the resolver worked from
type MappingDebug struct {
	ShowName           string             `json:"showName"`
	SeasonName         string             `json:"seasonName"`
	SeasonEpisodeCount int                `json:"seasonEpisodeCount"`
	FirstEpisodes      []tmdb.Episode     `json:"firstEpisodes"`
	Candidates         []CandidateSummary `json:"candidates"`
}

// MappingController reconciles a TMDb season's episode numbering against
// AniList's differently-segmented catalog entries
type MappingController struct {
	tmdb      MetadataClient
	anilist   CatalogClient
	allowlist *utils.Allowlist
	overrides map[OverrideKey][]models.MappingSegment
	logger    *logrus.Logger

	showCache      *cache.Cache[*tmdb.Show]
	seasonCache    *cache.Cache[*tmdb.Season]
	candidateCache *cache.Cache[[]anilist.Candidate]
}

// NewMappingController creates a new mapping controller. metadataTTL bounds
// the staleness of cached TMDb and AniList lookups; upstream metadata, not
// user state, is the variable here, so it is much shorter than the episode
// data TTL.
func NewMappingController(
	tmdbClient MetadataClient,
	anilistClient CatalogClient,
	allowlist *utils.Allowlist,
	metadataTTL time.Duration,
	logger *logrus.Logger,
) *MappingController {
	return &MappingController{
		tmdb:           tmdbClient,
		anilist:        anilistClient,
		allowlist:      allowlist,
		overrides:      segmentOverrides,
		logger:         logger,
		showCache:      cache.New[*tmdb.Show](metadataTTL),
		seasonCache:    cache.New[*tmdb.Season](metadataTTL),
		candidateCache: cache.New[[]anilist.Candidate](metadataTTL),
	}
}

// Resolve maps the episode range of one season to AniList entries.
// seasonNumber 0 means "not specified" and defaults to season 1.
func (c *MappingController) Resolve(ctx context.Context, showID, seasonNumber int, debug bool) (*MappingResult, error) {
	// The allow-list gate runs before any upstream fetch
	if !c.allowlist.Contains(showID) {
		return nil, ErrShowNotAllowed
	}

	var show *tmdb.Show
	var season *tmdb.Season

	if seasonNumber > 0 {
		var err error
		show, err = c.getShow(ctx, showID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		season, err = c.getSeason(ctx, showID, seasonNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	} else {
		// No season given: default to season 1 and fetch both at once
		seasonNumber = 1
		p := pool.New().WithContext(ctx)
		p.Go(func(ctx context.Context) error {
			fetched, err := c.getShow(ctx, showID)
			if err != nil {
				return err
			}
			show = fetched
			return nil
		})
		p.Go(func(ctx context.Context) error {
			fetched, err := c.getSeason(ctx, showID, 1)
			if err != nil {
				return err
			}
			season = fetched
			return nil
		})
		if err := p.Wait(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	// Non-animation shows never get an AniList lookup; this is a scope
	// guard, surfaced as "no matches"
	if !show.IsAnimation() {
		c.logger.WithField("show_id", showID).Debug("Show is not animation, skipping AniList lookup")
		return nil, ErrNoMatches
	}

	candidates, err := c.collectCandidates(ctx, show.Name, seasonNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	result := &MappingResult{
		TMDBShowID: showID,
		TMDBSeason: seasonNumber,
	}

	if segments, ok := c.overrides[OverrideKey{ShowID: showID, Season: seasonNumber}]; ok {
		result.Segments = segments
		result.Source = SourceOverride
	} else {
		segments, source, err := packCandidates(candidates, len(season.Episodes))
		if err != nil {
			return nil, err
		}
		result.Segments = segments
		result.Source = source
	}

	if debug {
		result.Debug = buildDebug(show, season, candidates)
	}

	c.logger.WithFields(logrus.Fields{
		"show_id":  showID,
		"season":   seasonNumber,
		"segments": len(result.Segments),
		"source":   result.Source,
	}).Info("Resolved season mapping")

	return result, nil
}

// collectCandidates searches AniList by the show title and, for later
// seasons, the usual renamed-season variants, deduplicating by entry id
func (c *MappingController) collectCandidates(ctx context.Context, title string, seasonNumber int) ([]anilist.Candidate, error) {
	queries := []string{title}
	if seasonNumber > 1 {
		queries = append(queries,
			fmt.Sprintf("%s Season %d", title, seasonNumber),
			fmt.Sprintf("%s Final Season", title),
			fmt.Sprintf("%s The Final Season", title),
		)
	}

	seen := make(map[int]bool)
	var candidates []anilist.Candidate
	for _, query := range queries {
		matches, err := c.searchCandidates(ctx, query)
		if err != nil {
			// The primary query must succeed; variant probes are best effort
			if query == title {
				return nil, err
			}
			c.logger.WithError(err).WithField("query", query).Debug("Variant probe failed, continuing")
			continue
		}
		for _, candidate := range matches {
			if !seen[candidate.ID] {
				seen[candidate.ID] = true
				candidates = append(candidates, candidate)
			}
		}
	}

	return candidates, nil
}

// packCandidates assigns contiguous episode ranges to candidates sorted by
// start date, covering [1, totalEpisodes] with no gaps
func packCandidates(candidates []anilist.Candidate, totalEpisodes int) ([]models.MappingSegment, string, error) {
	if len(candidates) == 0 {
		return nil, "", ErrNoMatches
	}

	withCount := make([]anilist.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Episodes > 0 {
			withCount = append(withCount, candidate)
		}
	}

	if len(withCount) == 0 {
		// No episode counts known at all: map the whole season to the
		// first candidate rather than fail
		return []models.MappingSegment{
			{StartEpisode: 1, EndEpisode: totalEpisodes, AnilistID: candidates[0].ID},
		}, SourceFallback, nil
	}

	sort.SliceStable(withCount, func(i, j int) bool {
		ti, iKnown := withCount[i].StartDate.Time()
		tj, jKnown := withCount[j].StartDate.Time()
		if iKnown != jKnown {
			return iKnown // unknown start dates sort last
		}
		return ti.Before(tj)
	})

	var segments []models.MappingSegment
	start := 1
	for _, candidate := range withCount {
		if start > totalEpisodes {
			break
		}
		length := candidate.Episodes
		if remaining := totalEpisodes - start + 1; length > remaining {
			length = remaining
		}
		segments = append(segments, models.MappingSegment{
			StartEpisode: start,
			EndEpisode:   start + length - 1,
			AnilistID:    candidate.ID,
		})
		start += length
	}

	// No trailing gap: the last segment absorbs whatever the candidates
	// did not cover
	if last := len(segments) - 1; last >= 0 && segments[last].EndEpisode < totalEpisodes {
		segments[last].EndEpisode = totalEpisodes
	}

	return segments, SourcePacked, nil
}

func buildDebug(show *tmdb.Show, season *tmdb.Season, candidates []anilist.Candidate) *MappingDebug {
	firstEpisodes := season.Episodes
	if len(firstEpisodes) > 3 {
		firstEpisodes = firstEpisodes[:3]
	}

	summaries := make([]CandidateSummary, 0, len(candidates))
	for _, candidate := range candidates {
		startDate := ""
		if t, ok := candidate.StartDate.Time(); ok {
			startDate = t.Format("2006-01-02")
		}
		summaries = append(summaries, CandidateSummary{
			ID:           candidate.ID,
			DisplayTitle: candidate.DisplayTitle(),
			Episodes:     candidate.Episodes,
			StartDate:    startDate,
		})
	}

	return &MappingDebug{
		ShowName:           show.Name,
		SeasonName:         season.Name,
		SeasonEpisodeCount: len(season.Episodes),
		FirstEpisodes:      firstEpisodes,
		Candidates:         summaries,
	}
}

// Cached upstream lookups, keyed the same way across restarts

func (c *MappingController) getShow(ctx context.Context, showID int) (*tmdb.Show, error) {
	key := fmt.Sprintf("tmdb_show_%d", showID)
	if show, ok := c.showCache.Get(key); ok {
		return show, nil
	}
	show, err := c.tmdb.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	c.showCache.Set(key, show)
	return show, nil
}

func (c *MappingController) getSeason(ctx context.Context, showID, seasonNumber int) (*tmdb.Season, error) {
	key := fmt.Sprintf("tmdb_season_%d_%d", showID, seasonNumber)
	if season, ok := c.seasonCache.Get(key); ok {
		return season, nil
	}
	season, err := c.tmdb.GetSeason(ctx, showID, seasonNumber)
	if err != nil {
		return nil, err
	}
	c.seasonCache.Set(key, season)
	return season, nil
}

func (c *MappingController) searchCandidates(ctx context.Context, title string) ([]anilist.Candidate, error) {
	key := "anilist_candidates_" + title
	if candidates, ok := c.candidateCache.Get(key); ok {
		return candidates, nil
	}
	candidates, err := c.anilist.Search(ctx, title)
	if err != nil {
		return nil, err
	}
	c.candidateCache.Set(key, candidates)
	return candidates, nil
}
