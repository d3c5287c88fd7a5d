package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/tessro/cadence/internal/config"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/spotify/auth"
	"github.com/tessro/cadence/internal/spotify/client"
)

// newLogger builds the process logger from the [log] section. When a file is
// configured, the returned closer closes it.
func newLogger(c config.LogConfig, verbose bool, stderr io.Writer) (*log.Logger, io.Closer, error) {
	w := stderr
	var closer io.Closer = io.NopCloser(nil)

	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "cadence",
	})

	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.WarnLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)

	return logger, closer, nil
}

// authConfig returns the OAuth settings for the configured client.
func authConfig() *auth.Config {
	return auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI)
}

// newSpotifyClient returns an API client authorized with the stored token.
func newSpotifyClient(ctx context.Context, logger *log.Logger) (*client.Client, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, cerrors.WithSuggestion(
			fmt.Errorf("%w: spotify.client_id is not set", cerrors.ErrInvalidConfig),
			"Set spotify.client_id in ~/.cadencerc or via CADENCE_SPOTIFY_CLIENT_ID",
		)
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	ts, err := storage.TokenSource(ctx, authConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if ts == nil {
		return nil, cerrors.ErrNotAuthenticated
	}

	return client.New(oauth2.NewClient(ctx, ts),
		client.WithLogger(logger.With("component", "spotify")),
		client.WithRateLimit(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst),
	), nil
}
