// Package auth implements the Spotify authorization code flow with PKCE.
package auth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// DefaultScopes are the Spotify scopes cadence needs.
var DefaultScopes = []string{
	"user-library-read",
	"playlist-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-private",
	"user-read-email",
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID    string
	RedirectURI string
	Scopes      []string

	// Endpoint overrides the Spotify accounts endpoint.
	Endpoint oauth2.Endpoint
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID, redirectURI string) *Config {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	endpoint := spotify.Endpoint
	// PKCE clients have no secret; the client ID travels in the form body.
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &Config{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scopes:      DefaultScopes,
		Endpoint:    endpoint,
	}
}

// OAuth2 returns the equivalent oauth2.Config.
func (c *Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURI,
		Scopes:      c.Scopes,
		Endpoint:    c.Endpoint,
	}
}

// AuthURL builds the authorization URL for state and PKCE verifier.
func (c *Config) AuthURL(state, verifier string) string {
	return c.OAuth2().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a token.
func (c *Config) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := c.OAuth2().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// callbackAddr splits the redirect URI into a listen address and path.
func (c *Config) callbackAddr() (addr, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Port() == "" {
		return "", "", fmt.Errorf("redirect URI must include a port: %s", c.RedirectURI)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
