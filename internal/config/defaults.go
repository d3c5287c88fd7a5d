package config

import (
	"os"
	"path/filepath"
)

const (
	EngineConnect = "connect"
	EngineSim     = "sim"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	enabled := true
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
		},
		Playback: PlaybackConfig{
			Engine:         EngineConnect,
			PollInterval:   1000,
			SimTrackLength: 3000,
			QueueBuffer:    64,
		},
		Fetch: FetchConfig{
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled: &enabled,
			Path:    defaultCachePath(),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	if c.Playback.Engine == "" {
		c.Playback.Engine = d.Playback.Engine
	}
	if c.Playback.PollInterval == 0 {
		c.Playback.PollInterval = d.Playback.PollInterval
	}
	if c.Playback.SimTrackLength == 0 {
		c.Playback.SimTrackLength = d.Playback.SimTrackLength
	}
	if c.Playback.QueueBuffer == 0 {
		c.Playback.QueueBuffer = d.Playback.QueueBuffer
	}

	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = d.Fetch.RequestsPerSecond
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = d.Fetch.Burst
	}

	if c.Cache.Enabled == nil {
		c.Cache.Enabled = d.Cache.Enabled
	}
	if c.Cache.Path == "" {
		c.Cache.Path = d.Cache.Path
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cadence", "tracks.db")
	}
	return filepath.Join(dir, "cadence", "tracks.db")
}
