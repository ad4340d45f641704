package models

import "time"

// WatchProgress represents one user's tracking state for a single title.
// LastWatchedSeason and LastWatchedEpisode are either both nil or both set;
// they are only meaningful for TV shows.
type WatchProgress struct {
	ID     uint64 `boltholdKey:"ID"`
	UserID string `boltholdIndex:"UserID"`
	TMDBID int

	MediaType MediaType
	Status    WatchStatus

	LastWatchedSeason  *int // nil for movies or when no progress recorded
	LastWatchedEpisode *int
	LastWatchedAt      time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
