package models

// MediaType represents the type of media (movie or tv show)
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// WatchStatus represents where a user stands with a tracked title
type WatchStatus string

const (
	StatusWatching WatchStatus = "watching" // actively watching
	StatusWaiting  WatchStatus = "waiting"  // caught up, waiting for new episodes
	StatusFinished WatchStatus = "finished" // done with the title
)

// IsValid reports whether the status is one of the known values
func (s WatchStatus) IsValid() bool {
	switch s {
	case StatusWatching, StatusWaiting, StatusFinished:
		return true
	}
	return false
}

// ShowStatusEnded is the TMDb status value for a concluded show.
// A show in this state never produces episode data.
const ShowStatusEnded = "Ended"
