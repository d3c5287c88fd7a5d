package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/browser"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/spotify/auth"
	"github.com/tessro/cadence/internal/spotify/client"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long:  `Opens a browser to authenticate with Spotify using OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if cfg.Spotify.ClientID == "" {
		return fmt.Errorf("spotify.client_id not configured. Set it in ~/.cadencerc or via CADENCE_SPOTIFY_CLIENT_ID")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	token, err := auth.Login(ctx, authConfig(), auth.LoginOptions{
		Open: browser.Open,
		Out:  out,
	})
	if err != nil {
		return err
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}
	if err := storage.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	logger, closer, err := newLogger(cfg.Log, Verbose(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	api, err := newSpotifyClient(ctx, logger)
	if err != nil {
		return err
	}
	user, err := api.GetCurrentUser(ctx)
	if err != nil {
		fmt.Fprintln(out, "Authentication successful! Token stored.")
		return nil
	}

	fmt.Fprintf(out, "Successfully authenticated as %s\n", describeUser(user))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		fmt.Fprintln(out, "Not authenticated")
		fmt.Fprintln(out, cerrors.GetSuggestion(cerrors.ErrNotAuthenticated))
		return nil
	}

	logger, closer, err := newLogger(cfg.Log, Verbose(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	api, err := newSpotifyClient(cmd.Context(), logger)
	if err != nil {
		return err
	}

	user, err := api.GetCurrentUser(cmd.Context())
	if err != nil {
		printTokenStatus(out, storage, token.Expiry)
		return fmt.Errorf("token stored but not usable: %w", err)
	}

	fmt.Fprintf(out, "Authenticated as %s\n", describeUser(user))
	if user.Product != "" {
		fmt.Fprintf(out, "Account: %s\n", user.Product)
	}
	printTokenStatus(out, storage, token.Expiry)
	return nil
}

func printTokenStatus(out io.Writer, storage *auth.TokenStorage, expiry time.Time) {
	if Verbose() {
		fmt.Fprintf(out, "Token file: %s\n", storage.Path())
	}
	if expiry.IsZero() {
		return
	}
	if time.Now().After(expiry) {
		fmt.Fprintln(out, "Access token expired (will refresh on next use)")
		return
	}
	fmt.Fprintf(out, "Access token expires %s\n", humanize.Time(expiry))
}

func describeUser(u *client.User) string {
	if u.Email != "" {
		return fmt.Sprintf("%s (%s)", u.Name(), u.Email)
	}
	return u.Name()
}
