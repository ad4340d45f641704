package utils

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// defaultAllowedShows are the TMDb show ids the mapping endpoint serves when
// no allow-list file is present.
var defaultAllowedShows = []int{
	1429,   // Attack on Titan
	37854,  // One Piece
	85937,  // Demon Slayer: Kimetsu no Yaiba
	95479,  // Jujutsu Kaisen
	120089, // Spy x Family
	209867, // Frieren: Beyond Journey's End
}

// Allowlist holds the TMDb show ids for which anime segment mapping is enabled
type Allowlist struct {
	ids map[int]bool
}

// LoadAllowlist loads show ids from a file, one per line. Lines starting
// with # are comments. A missing file yields the built-in defaults.
func LoadAllowlist(path string) (*Allowlist, error) {
	ids := make(map[int]bool)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		for _, id := range defaultAllowedShows {
			ids[id] = true
		}
		return &Allowlist{ids: ids}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		ids[id] = true
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Allowlist{ids: ids}, nil
}

// NewAllowlist builds an allow-list from explicit ids (used in tests)
func NewAllowlist(showIDs ...int) *Allowlist {
	ids := make(map[int]bool, len(showIDs))
	for _, id := range showIDs {
		ids[id] = true
	}
	return &Allowlist{ids: ids}
}

// Contains reports whether a show id is on the allow-list
func (a *Allowlist) Contains(showID int) bool {
	return a.ids[showID]
}

// Size returns how many ids are allowed
func (a *Allowlist) Size() int {
	return len(a.ids)
}
