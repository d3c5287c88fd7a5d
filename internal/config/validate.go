package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Fetch.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fetch: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI == "" {
		return nil
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri: %w", err)
	}
	if u.Port() == "" {
		return fmt.Errorf("redirect_uri must include a port: %s", c.RedirectURI)
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	switch c.Engine {
	case "", EngineConnect, EngineSim:
		// valid
	default:
		return fmt.Errorf("invalid engine: %s (must be %s or %s)", c.Engine, EngineConnect, EngineSim)
	}
	if c.PollInterval < 0 {
		return errors.New("poll_interval must be non-negative")
	}
	if c.SimTrackLength < 0 {
		return errors.New("sim_track_length must be non-negative")
	}
	if c.QueueBuffer < 0 {
		return errors.New("queue_buffer must be non-negative")
	}
	return nil
}

// Validate checks FetchConfig for errors.
func (c *FetchConfig) Validate() error {
	if c.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must be non-negative")
	}
	if c.Burst < 0 {
		return errors.New("burst must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
