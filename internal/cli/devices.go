package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/spotify/client"
	"github.com/tessro/cadence/internal/ui"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List Spotify Connect devices",
	Long: `Lists the Spotify Connect devices cadence can play on. Set one with
'cadence config set-device' or spotify.device in the config file.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logger, closer, err := newLogger(cfg.Log, Verbose(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	api, err := newSpotifyClient(ctx, logger)
	if err != nil {
		return err
	}

	devices, err := api.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found")
		return nil
	}

	printDevices(out, devices, cfg.Spotify.Device)
	return nil
}

func printDevices(out io.Writer, devices []client.Device, configured string) {
	t := NewTableWriter(out, "", "NAME", "TYPE", "ID")
	for _, d := range devices {
		name := d.Name
		if configured != "" && (configured == d.ID || configured == d.Name) {
			name += " (default)"
		}
		t.Row(StatusIcon(d.IsActive), TruncateString(name, 40), d.Type, d.ID)
	}
	t.Flush()
}

func deviceLabel(d client.Device) string {
	label := d.Name
	if d.Type != "" {
		label = fmt.Sprintf("%s (%s)", d.Name, d.Type)
	}
	if d.IsActive {
		label += " " + ui.Playing.Render("[active]")
	}
	return label
}
