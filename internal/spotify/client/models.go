package client

// User represents a Spotify user profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	URI         string `json:"uri"`
}

// Name returns the display name, falling back to the user ID.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// Device represents a Spotify playback device.
type Device struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	IsActive       bool   `json:"is_active"`
	IsRestricted   bool   `json:"is_restricted"`
	VolumePercent  *int   `json:"volume_percent"` // Nullable
	SupportsVolume bool   `json:"supports_volume"`
}

// DevicesResponse is the response from the devices endpoint.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Device               Device `json:"device"`
	Timestamp            int64  `json:"timestamp"`
	ProgressMS           int    `json:"progress_ms"`
	IsPlaying            bool   `json:"is_playing"`
	Item                 *Track `json:"item"`
	CurrentlyPlayingType string `json:"currently_playing_type"` // track, episode, ad, unknown
}

// TrackID returns the ID of the playing item, or "" if nothing is loaded.
func (s *PlaybackState) TrackID() string {
	if s == nil || s.Item == nil {
		return ""
	}
	return s.Item.ID
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	DurationMS int      `json:"duration_ms"`
	IsLocal    bool     `json:"is_local"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album. Tracks is only filled in by endpoints
// that return full album objects.
type Album struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	URI         string       `json:"uri"`
	AlbumType   string       `json:"album_type"`
	TotalTracks int          `json:"total_tracks"`
	ReleaseDate string       `json:"release_date"`
	Artists     []Artist     `json:"artists"`
	Tracks      *AlbumTracks `json:"tracks,omitempty"`
}

// AlbumTracks is the first page of tracks embedded in a full album object.
type AlbumTracks struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Description string `json:"description"`
	Owner       User   `json:"owner"`
	Tracks      struct {
		Total int    `json:"total"`
		Href  string `json:"href"`
	} `json:"tracks"`
}

// PlaylistItem is one entry of a playlist. Track is nil for removed or
// unavailable content.
type PlaylistItem struct {
	Track   *Track `json:"track"`
	IsLocal bool   `json:"is_local"`
}

// SavedAlbum is one entry of the user's library.
type SavedAlbum struct {
	AddedAt string `json:"added_at"`
	Album   Album  `json:"album"`
}

// Page is a paged list response. Next is an absolute URL, empty on the last
// page.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Next   string `json:"next"`
}
