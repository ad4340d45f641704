package controllers

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/amaumene/episodarr/internal/cache"
	"github.com/amaumene/episodarr/internal/models"
	"github.com/amaumene/episodarr/internal/services/tmdb"
	"github.com/amaumene/episodarr/internal/utils"
	"github.com/sirupsen/logrus"
)

// fakeTMDB serves canned show/season data and counts upstream calls
type fakeTMDB struct {
	shows       map[int]*tmdb.Show
	seasons     map[string]*tmdb.Season
	showErr     error
	showCalls   int
	seasonCalls int
}

func seasonKey(showID, seasonNumber int) string {
	return fmt.Sprintf("%d/%d", showID, seasonNumber)
}

func (f *fakeTMDB) GetShow(ctx context.Context, showID int) (*tmdb.Show, error) {
	f.showCalls++
	if f.showErr != nil {
		return nil, f.showErr
	}
	show, ok := f.shows[showID]
	if !ok {
		return nil, fmt.Errorf("show %d not found", showID)
	}
	return show, nil
}

func (f *fakeTMDB) GetSeason(ctx context.Context, showID, seasonNumber int) (*tmdb.Season, error) {
	f.seasonCalls++
	season, ok := f.seasons[seasonKey(showID, seasonNumber)]
	if !ok {
		return nil, fmt.Errorf("show %d season %d not found", showID, seasonNumber)
	}
	return season, nil
}

func testLogger() *logrus.Logger {
	return utils.NewLogger("panic")
}

func intPtr(v int) *int { return &v }

func dateStr(t time.Time) string { return t.Format("2006-01-02") }

// newEngine builds a controller over a fake client with a pinned clock
func newEngine(t *testing.T, fake *fakeTMDB, now time.Time) *EpisodeController {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctrl := NewEpisodeController(db, fake, cache.New[*models.EpisodeInfo](time.Hour), 7, testLogger())
	ctrl.now = func() time.Time { return now }
	return ctrl
}

func showWithSeasons(id int, status string, seasonNumbers ...int) *tmdb.Show {
	show := &tmdb.Show{ID: id, Name: "Test Show", Status: status}
	for _, n := range seasonNumbers {
		show.Seasons = append(show.Seasons, tmdb.SeasonSummary{SeasonNumber: n})
	}
	return show
}

func episode(season, number int, airDate string) tmdb.Episode {
	return tmdb.Episode{SeasonNumber: season, EpisodeNumber: number, AirDate: airDate}
}

func TestEndedShowReturnsNil(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Ended", 1)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, dateStr(now.AddDate(0, 0, -1))),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	if info := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil); info != nil {
		t.Errorf("expected nil for an ended show, got %+v", info)
	}
	if fake.seasonCalls != 0 {
		t.Errorf("expected no season fetch for an ended show, got %d", fake.seasonCalls)
	}
}

func TestShowFetchFailureReturnsNil(t *testing.T) {
	fake := &fakeTMDB{showErr: fmt.Errorf("tmdb down")}
	ctrl := newEngine(t, fake, time.Now())

	if info := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil); info != nil {
		t.Errorf("expected nil on fetch failure, got %+v", info)
	}
}

func TestNewEpisodeWindowBoundary(t *testing.T) {
	// Air dates resolve to midnight UTC, so shift "now" by a second to
	// probe both sides of the window edge
	airDate := "2025-06-01"

	tests := []struct {
		name    string
		now     time.Time
		wantNew int
	}{
		{"exactly window start", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 1},
		{"one second past window", time.Date(2025, 6, 8, 0, 0, 1, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTMDB{
				shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1)},
				seasons: map[string]*tmdb.Season{
					seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
						episode(1, 1, airDate),
					}},
				},
			}

			ctrl := newEngine(t, fake, tt.now)
			info := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil)
			if info == nil {
				t.Fatal("expected episode info")
			}
			if info.NewEpisodeCount != tt.wantNew {
				t.Errorf("NewEpisodeCount = %d, want %d", info.NewEpisodeCount, tt.wantNew)
			}
		})
	}
}

func TestProgressAheadLogic(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	recent := dateStr(now.AddDate(0, 0, -2)) // inside the window
	old := dateStr(now.AddDate(0, 0, -30))   // outside the window

	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1, 2, 3)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 99, recent), // season behind: never new
			}},
			seasonKey(100, 2): {SeasonNumber: 2, Episodes: []tmdb.Episode{
				episode(2, 5, recent), // at position: not new
				episode(2, 6, recent), // ahead in same season: new
			}},
			seasonKey(100, 3): {SeasonNumber: 3, Episodes: []tmdb.Episode{
				episode(3, 1, recent), // season ahead: new
				episode(3, 2, old),    // season ahead but outside window: not new
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	info := ctrl.CheckEpisodesForShow(context.Background(), 100, intPtr(2), intPtr(5))
	if info == nil {
		t.Fatal("expected episode info")
	}

	if info.NewEpisodeCount != 2 {
		t.Errorf("NewEpisodeCount = %d, want 2 (s2e6 and s3e1)", info.NewEpisodeCount)
	}
	if !info.HasNewEpisodes {
		t.Error("expected HasNewEpisodes")
	}
}

func TestNextEpisodeDateFromOlderSeason(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	upcoming := now.AddDate(0, 0, 3)

	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 2, 3)},
		seasons: map[string]*tmdb.Season{
			// Most recent season fully aired long ago
			seasonKey(100, 3): {SeasonNumber: 3, Episodes: []tmdb.Episode{
				episode(3, 1, dateStr(now.AddDate(0, 0, -60))),
			}},
			seasonKey(100, 2): {SeasonNumber: 2, Episodes: []tmdb.Episode{
				episode(2, 1, dateStr(upcoming)),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	info := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil)
	if info == nil {
		t.Fatal("expected episode info")
	}
	if info.NextEpisodeDate == nil {
		t.Fatal("expected next episode date from season 2")
	}
	if dateStr(*info.NextEpisodeDate) != dateStr(upcoming) {
		t.Errorf("NextEpisodeDate = %v, want %v", info.NextEpisodeDate, upcoming)
	}
	if info.Countdown == nil || *info.Countdown != "in 3 days" {
		t.Errorf("Countdown = %v, want %q", info.Countdown, "in 3 days")
	}
}

func TestUnknownAirDatesNeverAired(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, ""),
				episode(1, 2, "1970-01-01"),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	info := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil)
	if info == nil {
		t.Fatal("expected episode info")
	}
	if info.NewEpisodeCount != 0 {
		t.Errorf("episodes with unknown air dates must not count as new, got %d", info.NewEpisodeCount)
	}
	if info.NextEpisodeDate != nil {
		t.Errorf("episodes with unknown air dates must not be upcoming, got %v", info.NextEpisodeDate)
	}
}

func TestEarlyExitMatchesFullScan(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1, 2, 3)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 3): {SeasonNumber: 3, Episodes: []tmdb.Episode{
				episode(3, 1, dateStr(now.AddDate(0, 0, -1))),
				episode(3, 2, dateStr(now.AddDate(0, 0, 2))),
			}},
			seasonKey(100, 2): {SeasonNumber: 2, Episodes: []tmdb.Episode{
				episode(2, 1, dateStr(now.AddDate(0, 0, -100))),
				episode(2, 2, dateStr(now.AddDate(0, 0, 5))),
			}},
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, dateStr(now.AddDate(0, 0, -200))),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	early := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil)
	earlyCalls := fake.seasonCalls

	ctrl.forceFullScan = true
	full := ctrl.CheckEpisodesForShow(context.Background(), 100, nil, nil)
	fullCalls := fake.seasonCalls - earlyCalls

	if !reflect.DeepEqual(early, full) {
		t.Errorf("early-exit result %+v differs from full scan %+v", early, full)
	}
	if earlyCalls >= fullCalls {
		t.Errorf("expected the early exit to fetch fewer seasons (%d vs %d)", earlyCalls, fullCalls)
	}
}

func TestEpisodeCacheKeySensitivity(t *testing.T) {
	base := func() *models.WatchProgress {
		return &models.WatchProgress{
			UserID:             "user-1",
			TMDBID:             100,
			Status:             models.StatusWatching,
			LastWatchedSeason:  intPtr(2),
			LastWatchedEpisode: intPtr(5),
		}
	}

	key := EpisodeCacheKey(base())
	if again := EpisodeCacheKey(base()); again != key {
		t.Errorf("identical inputs must yield identical keys: %q vs %q", key, again)
	}

	mutations := map[string]func(*models.WatchProgress){
		"status":  func(p *models.WatchProgress) { p.Status = models.StatusWaiting },
		"season":  func(p *models.WatchProgress) { p.LastWatchedSeason = intPtr(3) },
		"episode": func(p *models.WatchProgress) { p.LastWatchedEpisode = intPtr(6) },
		"no progress": func(p *models.WatchProgress) {
			p.LastWatchedSeason = nil
			p.LastWatchedEpisode = nil
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			row := base()
			mutate(row)
			if EpisodeCacheKey(row) == key {
				t.Errorf("changing %s must change the cache key", name)
			}
		})
	}
}

func TestCheckAllShowsUsesCache(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, dateStr(now.AddDate(0, 0, -1))),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	if err := ctrl.db.UpsertProgress(&models.WatchProgress{
		UserID:    "user-1",
		TMDBID:    100,
		MediaType: models.MediaTypeTV,
		Status:    models.StatusWatching,
	}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	first, err := ctrl.CheckAllShows(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckAllShows: %v", err)
	}
	if len(first) != 1 || first[100] == nil {
		t.Fatalf("expected episode data for show 100, got %v", first)
	}
	callsAfterFirst := fake.showCalls

	second, err := ctrl.CheckAllShows(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckAllShows: %v", err)
	}
	if fake.showCalls != callsAfterFirst {
		t.Errorf("second call within the TTL must not refetch (calls %d -> %d)", callsAfterFirst, fake.showCalls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestProgressChangeBustsCache(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, dateStr(now.AddDate(0, 0, -1))),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	row := &models.WatchProgress{
		UserID:    "user-1",
		TMDBID:    100,
		MediaType: models.MediaTypeTV,
		Status:    models.StatusWatching,
	}
	if err := ctrl.db.UpsertProgress(row); err != nil {
		t.Fatal(err)
	}

	if _, err := ctrl.CheckAllShows(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := fake.showCalls

	// Advancing progress changes the cache key, so the next check
	// recomputes instead of serving the stale entry
	row.LastWatchedSeason = intPtr(1)
	row.LastWatchedEpisode = intPtr(1)
	if err := ctrl.db.UpsertProgress(row); err != nil {
		t.Fatal(err)
	}

	if _, err := ctrl.CheckAllShows(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}
	if fake.showCalls == callsAfterFirst {
		t.Error("expected a fresh computation after the progress change")
	}
}

func TestCheckAllShowsOmitsFailingShow(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	fake := &fakeTMDB{
		shows: map[int]*tmdb.Show{100: showWithSeasons(100, "Returning Series", 1)},
		seasons: map[string]*tmdb.Season{
			seasonKey(100, 1): {SeasonNumber: 1, Episodes: []tmdb.Episode{
				episode(1, 1, dateStr(now.AddDate(0, 0, -1))),
			}},
		},
	}

	ctrl := newEngine(t, fake, now)
	for _, tmdbID := range []int{100, 999} { // 999 is unknown upstream
		if err := ctrl.db.UpsertProgress(&models.WatchProgress{
			UserID:    "user-1",
			TMDBID:    tmdbID,
			MediaType: models.MediaTypeTV,
			Status:    models.StatusWatching,
		}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := ctrl.CheckAllShows(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("one failing show must not fail the batch: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected only the healthy show in the result, got %v", result)
	}
	if result[100] == nil {
		t.Error("expected episode data for show 100")
	}
}

func TestAheadOfProgress(t *testing.T) {
	tests := []struct {
		name           string
		season, ep     int
		lastS, lastE   *int
		want           bool
	}{
		{"no progress recorded", 1, 1, nil, nil, true},
		{"season ahead", 3, 1, intPtr(2), intPtr(5), true},
		{"same season episode ahead", 2, 6, intPtr(2), intPtr(5), true},
		{"at position", 2, 5, intPtr(2), intPtr(5), false},
		{"episode behind", 2, 4, intPtr(2), intPtr(5), false},
		{"season behind high episode", 1, 99, intPtr(2), intPtr(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aheadOfProgress(tt.season, tt.ep, tt.lastS, tt.lastE)
			if got != tt.want {
				t.Errorf("aheadOfProgress(s%de%d) = %v, want %v", tt.season, tt.ep, got, tt.want)
			}
		})
	}
}
