package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/cache"
	"github.com/tessro/cadence/internal/catalog"
	"github.com/tessro/cadence/internal/command"
	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine/connect"
	"github.com/tessro/cadence/internal/engine/sim"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/invoke"
	"github.com/tessro/cadence/internal/player"
	"github.com/tessro/cadence/internal/spotify/client"
	"github.com/tessro/cadence/internal/ui"
)

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logger, logCloser, err := newLogger(cfg.Log, Verbose(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	api, err := newSpotifyClient(ctx, logger)
	if err != nil {
		return err
	}

	me, err := api.GetCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user profile: %w", err)
	}

	interactive := ui.IsTerminal()

	var result cerrors.PartialResult[*catalog.Catalog]
	err = ui.RunWithSpinner(interactive, "Loading your library...", func() {
		result = catalog.Load(ctx, api, logger.With("component", "catalog"))
	})
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if result.HasErrors() {
		logger.Warn("library partially loaded", "errors", result.ErrorSummary())
		fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("Some collections could not be loaded (%s)",
			english.Plural(len(result.Errors), "error", ""))))
	}
	fmt.Fprintln(out, librarySummary(result.Data))

	eng, err := newEngine(ctx, api, logger)
	if err != nil {
		return err
	}

	resolver, closeResolver := newResolver(api, logger)
	defer closeResolver()

	console := ui.NewConsole(cmd.InOrStdin(), out, interactive)
	sh := newShell(console, eng, logger, cfg.Playback.QueueBuffer, invoke.Deps{
		Library:  result.Data,
		Resolver: resolver,
		Picker:   ui.NewPicker(interactive),
		Keys:     console,
		Out:      out,
		User:     invoke.User{ID: me.ID, DisplayName: me.DisplayName},
		Logger:   logger.With("component", "invoke"),
	})

	fmt.Fprintln(out, "Type 'help' for commands.")
	return sh.run(ctx)
}

// librarySummary describes what was loaded, e.g. "Loaded 12 playlists and 1 album".
func librarySummary(c *catalog.Catalog) string {
	playlists, albums := c.Counts()
	return fmt.Sprintf("Loaded %s %s and %s %s",
		humanize.Comma(int64(playlists)), english.PluralWord(playlists, "playlist", ""),
		humanize.Comma(int64(albums)), english.PluralWord(albums, "album", ""),
	)
}

// newEngine builds the playback engine named by playback.engine.
func newEngine(ctx context.Context, api *client.Client, logger *log.Logger) (core.Engine, error) {
	switch cfg.Playback.Engine {
	case config.EngineSim:
		length := time.Duration(cfg.Playback.SimTrackLength) * time.Millisecond
		return sim.New(length, sim.WithLogger(logger.With("component", "engine"))), nil

	default:
		deviceID, err := connect.ResolveDevice(ctx, api, cfg.Spotify.Device)
		if err != nil {
			return nil, err
		}
		return connect.New(api, deviceID,
			connect.WithInterval(time.Duration(cfg.Playback.PollInterval)*time.Millisecond),
			connect.WithLogger(logger.With("component", "engine")),
		), nil
	}
}

// newResolver returns the track resolver used by fetch tasks, backed by the
// SQLite cache when it is enabled and can be opened.
func newResolver(api *client.Client, logger *log.Logger) (invoke.Resolver, func()) {
	remote := cache.ResolverFunc(api.ResolveTrack)
	if !cfg.Cache.CacheEnabled() {
		return remote, func() {}
	}

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warn("track cache unavailable", "path", cfg.Cache.Path, "err", err)
		return remote, func() {}
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing track cache", "err", err)
		}
	}
	return cache.NewCachingResolver(store, remote, logger.With("component", "cache")), closeStore
}

// shell reads commands and hands them to the invoker while the player loop
// runs in the background.
type shell struct {
	console *ui.Console
	loop    *player.Loop
	inv     *invoke.Invoker
	logger  *log.Logger
}

func newShell(console *ui.Console, eng core.Engine, logger *log.Logger, buffer int, deps invoke.Deps) *shell {
	loop := player.New(eng,
		player.WithIndicator(console),
		player.WithLogger(logger.With("component", "player")),
		player.WithBuffer(buffer),
	)
	deps.Sender = loop.Sender()
	return &shell{
		console: console,
		loop:    loop,
		inv:     invoke.New(deps),
		logger:  logger,
	}
}

// run starts the player loop and serves commands until quit, end of input or
// ctx cancellation, then waits for the loop and any fetch tasks to finish.
func (s *shell) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()

	err := s.serve(ctx)
	if err != nil {
		cancel()
	}

	<-s.loop.Done()
	s.inv.Wait()

	if runErr := <-loopErr; runErr != nil && !errors.Is(runErr, context.Canceled) {
		s.logger.Debug("player loop ended", "err", runErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *shell) serve(ctx context.Context) error {
	for {
		s.console.Prompt()
		line, err := s.console.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			line = "quit"
		} else if err != nil {
			return err
		}

		outcome, err := s.inv.Execute(ctx, command.Parse(line))
		if err != nil {
			return err
		}
		if outcome == invoke.Shutdown {
			return nil
		}
	}
}
