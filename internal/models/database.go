package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrProgressPairing is returned when only one of season/episode is set.
var ErrProgressPairing = fmt.Errorf("lastWatchedSeason and lastWatchedEpisode must both be set or both be nil")

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// WatchProgress operations

// UpsertProgress creates or updates the progress row for (user, show, type).
// It enforces the season/episode pairing invariant.
func (db *Database) UpsertProgress(progress *WatchProgress) error {
	if (progress.LastWatchedSeason == nil) != (progress.LastWatchedEpisode == nil) {
		return ErrProgressPairing
	}

	existing, err := db.GetProgress(progress.UserID, progress.TMDBID, progress.MediaType)
	if err == nil {
		existing.Status = progress.Status
		existing.LastWatchedSeason = progress.LastWatchedSeason
		existing.LastWatchedEpisode = progress.LastWatchedEpisode
		existing.LastWatchedAt = progress.LastWatchedAt
		existing.UpdatedAt = time.Now()
		if copyErr := db.store.Update(existing.ID, existing); copyErr != nil {
			return copyErr
		}
		*progress = *existing
		return nil
	}

	progress.CreatedAt = time.Now()
	progress.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), progress)
}

// GetProgress retrieves the progress row for a user and title
func (db *Database) GetProgress(userID string, tmdbID int, mediaType MediaType) (*WatchProgress, error) {
	var progress WatchProgress
	err := db.store.FindOne(&progress,
		bolthold.Where("UserID").Eq(userID).
			And("TMDBID").Eq(tmdbID).
			And("MediaType").Eq(mediaType))
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListProgressByUserAndType retrieves all progress rows of one media type for a user
func (db *Database) ListProgressByUserAndType(userID string, mediaType MediaType) ([]*WatchProgress, error) {
	var rows []*WatchProgress
	err := db.store.Find(&rows,
		bolthold.Where("UserID").Eq(userID).
			And("MediaType").Eq(mediaType))
	return rows, err
}

// ListAllProgress retrieves every progress row
func (db *Database) ListAllProgress() ([]*WatchProgress, error) {
	var rows []*WatchProgress
	err := db.store.Find(&rows, nil)
	return rows, err
}

// ListUserIDs returns the distinct user ids that have at least one progress row
func (db *Database) ListUserIDs() ([]string, error) {
	rows, err := db.ListAllProgress()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var users []string
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			users = append(users, row.UserID)
		}
	}
	return users, nil
}

// DeleteProgress deletes a progress row by ID
func (db *Database) DeleteProgress(id uint64) error {
	return db.store.Delete(id, &WatchProgress{})
}
