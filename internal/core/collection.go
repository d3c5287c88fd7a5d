package core

// CollectionKind distinguishes the two kinds of playable collection.
type CollectionKind string

const (
	KindPlaylist CollectionKind = "playlist"
	KindAlbum    CollectionKind = "album"
)

// ParseCollectionKind accepts the singular and plural forms used on the
// command line.
func ParseCollectionKind(s string) (CollectionKind, bool) {
	switch s {
	case "playlist", "playlists":
		return KindPlaylist, true
	case "album", "albums":
		return KindAlbum, true
	}
	return "", false
}

// Collection is a named, ordered group of tracks.
type Collection struct {
	Kind     CollectionKind `json:"kind"`
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Owner    string         `json:"owner"`
	TrackIDs []string       `json:"track_ids"`
}

// DisplayName returns the collection name.
func (c *Collection) DisplayName() string {
	return c.Name
}

// OrderedTrackIDs returns a copy of the track IDs in collection order, so
// callers may shuffle the result freely.
func (c *Collection) OrderedTrackIDs() []string {
	out := make([]string, len(c.TrackIDs))
	copy(out, c.TrackIDs)
	return out
}
