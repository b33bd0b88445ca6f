// Package nowplaying watches the station's now-playing metadata and
// turns it into track-change notifications.
package nowplaying

import (
	"strings"
	"unicode"
)

// Track is one now-playing report from the station.
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Identity returns the normalized change-detection key. It is never
// displayed; two reports with the same identity are the same track.
func (t Track) Identity() string {
	return normalize(t.Artist) + "-" + normalize(t.Title)
}

// IsZero reports whether the track carries no metadata at all.
func (t Track) IsZero() bool {
	return t.Artist == "" && t.Title == ""
}

// normalize lowers the case, strips punctuation and collapses
// whitespace so cosmetic metadata differences do not look like track
// changes.
func normalize(s string) string {
	s = strings.ToLower(s)

	var result strings.Builder
	lastWasSpace := true // Start true to trim leading spaces

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			lastWasSpace = false
		} else if unicode.IsSpace(r) || r == '-' || r == '_' {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		}
		// Skip other punctuation
	}

	return strings.TrimSpace(result.String())
}
