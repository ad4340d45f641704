package controllers

import "github.com/amaumene/episodarr/internal/models"

// OverrideKey identifies one season of one show in the override table
type OverrideKey struct {
	ShowID int
	Season int
}

// segmentOverrides is the hand-curated exception table consulted before the
// packing algorithm. It exists because date-sorted packing is known to
// mis-map titles with non-standard cour splits; adding an entry here is a
// data change, not a code change.
var segmentOverrides = map[OverrideKey][]models.MappingSegment{
	// Attack on Titan: TMDb folds all Final Season parts into season 4,
	// while AniList splits them into separate entries whose episode counts
	// the packer would assign in the wrong order.
	{ShowID: 1429, Season: 4}: {
		{StartEpisode: 1, EndEpisode: 16, AnilistID: 110277},
		{StartEpisode: 17, EndEpisode: 28, AnilistID: 131681},
	},
}
