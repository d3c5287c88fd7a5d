package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/config"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/ui"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Play your Spotify playlists and albums from a shell",
	Long: `Cadence is an interactive Spotify client. It loads your saved playlists
and albums, then lets you play them by name from a prompt.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE:          runShell,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.cadencerc)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cerrors.WithSuggestion(
			fmt.Errorf("%w: %w", cerrors.ErrInvalidConfig, err),
			"Fix the values above in "+configPath(),
		)
	}

	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context, which shuts the shell down the same way 'quit' does.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorText.Render(cerrors.Format(err)))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
