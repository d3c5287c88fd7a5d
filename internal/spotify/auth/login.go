package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback state does not match the
// state sent with the authorization request.
var ErrStateMismatch = errors.New("state mismatch: possible CSRF attack")

// LoginOptions controls how the user is sent to the authorization page.
type LoginOptions struct {
	// Open launches the authorization URL, usually in a browser.
	Open func(url string) error
	// Out receives progress messages.
	Out io.Writer
}

// Login runs the authorization code flow with PKCE and returns the token.
// It blocks until the callback arrives or ctx is done.
func Login(ctx context.Context, cfg *Config, opts LoginOptions) (*oauth2.Token, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("spotify.client_id not configured")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	addr, path, err := cfg.callbackAddr()
	if err != nil {
		return nil, err
	}

	server, err := NewCallbackServer(addr, path)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthURL(state, verifier)

	fmt.Fprintln(out, "Opening browser for Spotify authentication...")
	if opts.Open == nil || opts.Open(authURL) != nil {
		fmt.Fprintf(out, "Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Fprintln(out, "Waiting for authentication...")
	result, err := server.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("authentication failed: %s", result.Error)
	}
	if result.State != state {
		return nil, ErrStateMismatch
	}

	fmt.Fprintln(out, "Exchanging code for tokens...")
	return cfg.Exchange(ctx, result.Code, verifier)
}
