package anilist

import "time"

// Title holds the name variants AniList tracks for an entry
type Title struct {
	English string `json:"english"`
	Romaji  string `json:"romaji"`
	Native  string `json:"native"`
}

// FuzzyDate is AniList's partial date; any component may be zero
type FuzzyDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Time converts the fuzzy date to a time.Time. Missing month/day default
// to 1. The second return value is false when the year is unknown.
func (d FuzzyDate) Time() (time.Time, bool) {
	if d.Year == 0 {
		return time.Time{}, false
	}
	month := d.Month
	if month == 0 {
		month = 1
	}
	day := d.Day
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Candidate is one AniList entry considered for segment mapping
type Candidate struct {
	ID        int       `json:"id"`
	Title     Title     `json:"title"`
	Episodes  int       `json:"episodes"` // 0 when unknown (airing or unannounced)
	Format    string    `json:"format"`
	StartDate FuzzyDate `json:"startDate"`
}

// DisplayTitle picks a human-readable title, preferring English, then
// romanized, then native
func (c Candidate) DisplayTitle() string {
	if c.Title.English != "" {
		return c.Title.English
	}
	if c.Title.Romaji != "" {
		return c.Title.Romaji
	}
	if c.Title.Native != "" {
		return c.Title.Native
	}
	return "Unknown Title"
}
