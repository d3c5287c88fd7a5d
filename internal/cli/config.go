package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing cadence configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values, including defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  spotify.client_id          Spotify client ID
  spotify.redirect_uri       OAuth redirect URI (must include a port)
  spotify.device             Connect device name or ID
  playback.engine            connect or sim
  playback.poll_interval     Player state poll interval in milliseconds
  playback.sim_track_length  Simulated track length in milliseconds
  playback.queue_buffer      Player command buffer size
  fetch.requests_per_second  Track lookup rate limit
  fetch.burst                Track lookup burst size
  cache.enabled              Cache track metadata (true/false)
  cache.path                 Track cache database path
  log.level                  debug, info, warn or error
  log.file                   Write logs to this file instead of stderr

Examples:
  cadence config set spotify.device "Kitchen"
  cadence config set playback.engine sim`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetDeviceCmd = &cobra.Command{
	Use:   "set-device",
	Short: "Interactively select the playback device",
	Long:  `Shows a picker to select the Spotify Connect device cadence plays on.`,
	RunE:  runConfigSetDevice,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetDeviceCmd)
	rootCmd.AddCommand(configCmd)
}

// configKeys maps settable keys to their value kind.
var configKeys = map[string]string{
	"spotify.client_id":         "string",
	"spotify.redirect_uri":      "string",
	"spotify.device":            "string",
	"playback.engine":           "string",
	"playback.poll_interval":    "int",
	"playback.sim_track_length": "int",
	"playback.queue_buffer":     "int",
	"fetch.requests_per_second": "float",
	"fetch.burst":               "int",
	"cache.enabled":             "bool",
	"cache.path":                "string",
	"log.level":                 "string",
	"log.file":                  "string",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	encoder := toml.NewEncoder(cmd.OutOrStdout())
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeConfigFile(path, config.Default()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set your Spotify client ID in the config file or via CADENCE_SPOTIFY_CLIENT_ID")
	fmt.Fprintln(out, "  2. Run 'cadence auth login' to authenticate with Spotify")
	return nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := setConfigValue(configPath(), key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// setConfigValue updates one key in the TOML file at path, keeping every
// other value as written.
func setConfigValue(path, key, value string) error {
	kind, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown key %q. Run 'cadence config set --help' for supported keys", key)
	}

	typed, err := parseConfigValue(kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'cadence config init' first", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	return writeConfigFile(path, raw)
}

func parseConfigValue(kind, value string) (any, error) {
	switch kind {
	case "int":
		return strconv.Atoi(value)
	case "float":
		return strconv.ParseFloat(value, 64)
	case "bool":
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

func writeConfigFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := writeConfig(f, v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func writeConfig(w io.Writer, v any) error {
	_, _ = fmt.Fprintln(w, "# Cadence Configuration")
	_, _ = fmt.Fprintln(w, "")

	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	return encoder.Encode(v)
}

func runConfigSetDevice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		options = append(options, huh.NewOption(deviceLabel(d), d.Name))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select playback device").
				Description("Cadence plays on this device unless another is active").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	return runConfigSet(cmd, []string{"spotify.device", selected})
}
