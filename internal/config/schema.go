package config

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Playback PlaybackConfig `toml:"playback"`
	Fetch    FetchConfig    `toml:"fetch"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	Device      string `toml:"device"`
}

// PlaybackConfig selects and tunes the playback engine.
type PlaybackConfig struct {
	Engine         string `toml:"engine"`
	PollInterval   int    `toml:"poll_interval"`    // milliseconds
	SimTrackLength int    `toml:"sim_track_length"` // milliseconds
	QueueBuffer    int    `toml:"queue_buffer"`
}

// FetchConfig limits metadata lookups made while resolving a collection.
type FetchConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// CacheConfig holds the track metadata cache settings.
type CacheConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// CacheEnabled reports whether the track cache is on. It defaults to true.
func (c *CacheConfig) CacheEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
