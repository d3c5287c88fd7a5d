package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/tessro/cadence/internal/command"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/player"
)

// errNothingSent is reported when no track of a collection could be resolved.
var errNothingSent = errors.New("no playable tracks")

func (inv *Invoker) play(ctx context.Context, cmd command.Command) error {
	kind, shuffled, name, ok := playArgs(cmd.Args)
	if !ok {
		inv.unknown()
		return nil
	}

	col, err := inv.selectCollection(kind, name)
	if err != nil {
		if !errors.Is(err, cerrors.ErrCollectionNotFound) {
			inv.deps.Logger.Warn("picker failed", "err", err)
		}
		inv.println("Not found")
		return nil
	}

	ids := col.OrderedTrackIDs()
	if shuffled {
		inv.deps.Shuffle(ids)
	}

	inv.println(fmt.Sprintf("Playing %s (press any key to stop)", col.DisplayName()))

	started := inv.startFetch(ctx, inv.deps.NewRequest(), ids)
	select {
	case err := <-started:
		if errors.Is(err, errNothingSent) {
			inv.println("Nothing playable in " + col.DisplayName())
			return nil
		}
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if inv.deps.Keys != nil {
		if err := inv.deps.Keys.WaitForKey(ctx); err != nil {
			return err
		}
	}
	return inv.deps.Sender.Send(ctx, player.StopPlaying())
}

// startFetch resolves ids in the background and streams them to the player:
// StartPlaying for the first track that resolves, AddToQueue for the rest.
// The returned channel yields exactly once: nil after the first message is
// delivered, otherwise the reason nothing was delivered.
func (inv *Invoker) startFetch(ctx context.Context, request string, ids []string) <-chan error {
	started := make(chan error, 1)
	inv.wg.Add(1)
	go func() {
		defer inv.wg.Done()
		sent, err := inv.fetch(ctx, request, ids, started)
		if sent > 0 {
			return
		}
		if err == nil {
			err = errNothingSent
		}
		started <- err
	}()
	return started
}

// fetch runs to completion unless the player goes away or ctx ends. It
// returns how many tracks were delivered.
func (inv *Invoker) fetch(ctx context.Context, request string, ids []string, started chan<- error) (int, error) {
	logger := inv.deps.Logger.With("request", request)
	sent := 0
	for _, id := range ids {
		track, err := inv.deps.Resolver.Resolve(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			logger.Warn("skipping unresolvable track", "track", id, "err", err)
			continue
		}

		msg := player.AddToQueue(request, track)
		if sent == 0 {
			msg = player.StartPlaying(request, track)
		}
		if err := inv.deps.Sender.Send(ctx, msg); err != nil {
			if errors.Is(err, cerrors.ErrPlayerStopped) {
				logger.Debug("player stopped, abandoning fetch", "sent", sent)
			} else {
				logger.Warn("sending track to player", "track", id, "err", err)
			}
			return sent, err
		}

		sent++
		if sent == 1 {
			started <- nil
		}
	}
	logger.Debug("fetch complete", "tracks", sent, "of", len(ids))
	return sent, nil
}
