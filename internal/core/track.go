package core

import (
	"strings"
	"time"
)

// TrackURIPrefix is the URI namespace for Spotify track identifiers.
const TrackURIPrefix = "spotify:track:"

// Track is a resolved, playable track. It is treated as immutable once
// resolved from the catalog.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
}

// String returns "Title - Artist", the form shown in the now-playing line.
func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}

// TrackURI converts a bare track ID to a playable URI. URIs pass through.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return TrackURIPrefix + id
}
