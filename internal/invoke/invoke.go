// Package invoke carries out parsed commands on behalf of the shell.
package invoke

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tessro/cadence/internal/command"
	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/player"
)

// Outcome tells the shell whether to keep reading commands.
type Outcome int

const (
	Continue Outcome = iota
	Shutdown
)

// Library is the read-only set of collections commands choose from.
type Library interface {
	Keys(kind core.CollectionKind) []string
	Get(kind core.CollectionKind, name string) (core.Collection, bool)
	Find(kind core.CollectionKind, filter string) (core.Collection, bool)
}

// Resolver looks up display metadata for a track ID.
type Resolver interface {
	Resolve(ctx context.Context, id string) (core.Track, error)
}

// Picker asks the user to choose one of items. ok is false when the user
// cancels.
type Picker interface {
	Pick(title string, items []string) (choice string, ok bool, err error)
}

// KeyWaiter blocks until the user presses a key.
type KeyWaiter interface {
	WaitForKey(ctx context.Context) error
}

// Sender delivers messages to the player loop.
type Sender interface {
	Send(ctx context.Context, m player.Message) error
}

// User identifies the signed-in account.
type User struct {
	ID          string
	DisplayName string
}

func (u User) String() string {
	switch {
	case u.DisplayName != "" && u.ID != "":
		return fmt.Sprintf("%s (%s)", u.DisplayName, u.ID)
	case u.ID != "":
		return u.ID
	default:
		return "Good question..."
	}
}

const helpText = `Commands:
  play playlist|album [shuffle] [name]   play a collection; no name opens a picker
  stop                                   stop playback
  pause                                  not supported yet
  list playlists|albums                  list your collections (alias: ls)
  whoami                                 show the signed-in account
  help                                   show this help (alias: man)
  quit                                   leave cadence (alias: exit)

While a collection is playing, press any key to stop.`

// Deps are the collaborators an Invoker drives.
type Deps struct {
	Library  Library
	Resolver Resolver
	Sender   Sender
	Picker   Picker
	Keys     KeyWaiter
	Out      io.Writer
	User     User
	Logger   *log.Logger

	// Shuffle permutes ids in place. Defaults to a uniform random shuffle.
	Shuffle func(ids []string)
	// NewRequest returns a fresh request ID for each play.
	NewRequest func() string
}

// Invoker maps commands to actions. Execute is meant to be called from a
// single goroutine; the fetch tasks it starts run on their own.
type Invoker struct {
	deps Deps
	wg   sync.WaitGroup
}

// New creates an Invoker.
func New(deps Deps) *Invoker {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Shuffle == nil {
		deps.Shuffle = shuffle
	}
	if deps.NewRequest == nil {
		deps.NewRequest = uuid.NewString
	}
	return &Invoker{deps: deps}
}

// Execute runs cmd. A returned error means the player could not be reached;
// user mistakes are reported on Out and yield a nil error.
func (inv *Invoker) Execute(ctx context.Context, cmd command.Command) (Outcome, error) {
	switch cmd.Kind {
	case command.Play:
		return Continue, inv.play(ctx, cmd)
	case command.Pause:
		// Pause is accepted but does nothing yet.
		return Continue, nil
	case command.Stop:
		return Continue, inv.deps.Sender.Send(ctx, player.StopPlaying())
	case command.List:
		inv.list(cmd)
		return Continue, nil
	case command.Whoami:
		inv.println(inv.deps.User.String())
		return Continue, nil
	case command.Help:
		inv.println(helpText)
		return Continue, nil
	case command.Quit:
		return inv.quit(ctx)
	default:
		inv.unknown()
		return Continue, nil
	}
}

// Wait blocks until every fetch task has finished.
func (inv *Invoker) Wait() {
	inv.wg.Wait()
}

func (inv *Invoker) list(cmd command.Command) {
	kind, ok := core.ParseCollectionKind(cmd.Arg(0))
	if !ok {
		inv.unknown()
		return
	}
	for _, key := range inv.deps.Library.Keys(kind) {
		inv.println(key)
	}
}

func (inv *Invoker) quit(ctx context.Context) (Outcome, error) {
	err := inv.deps.Sender.Send(ctx, player.Quit())
	if err != nil {
		inv.deps.Logger.Debug("quit after player exit", "err", err)
	}
	inv.println("Come back soon!")
	return Shutdown, nil
}

func (inv *Invoker) unknown() {
	inv.println("Huh?")
}

func (inv *Invoker) println(s string) {
	fmt.Fprintln(inv.deps.Out, s)
}

// playArgs splits "kind [shuffle] [name...]".
func playArgs(args []string) (kind core.CollectionKind, shuffled bool, name string, ok bool) {
	if len(args) == 0 {
		return "", false, "", false
	}
	switch args[0] {
	case "playlist":
		kind = core.KindPlaylist
	case "album":
		kind = core.KindAlbum
	default:
		return "", false, "", false
	}
	rest := args[1:]
	if len(rest) > 0 && rest[0] == "shuffle" {
		shuffled = true
		rest = rest[1:]
	}
	return kind, shuffled, strings.Join(rest, " "), true
}

// selectCollection resolves a name filter, or asks the user to pick when
// there is none. No match, no picker and a cancelled pick all yield
// ErrCollectionNotFound.
func (inv *Invoker) selectCollection(kind core.CollectionKind, name string) (core.Collection, error) {
	notFound := fmt.Errorf("%w: %s %q", cerrors.ErrCollectionNotFound, kind, name)

	if name != "" {
		col, ok := inv.deps.Library.Find(kind, name)
		if !ok {
			return core.Collection{}, notFound
		}
		return col, nil
	}

	keys := inv.deps.Library.Keys(kind)
	if len(keys) == 0 || inv.deps.Picker == nil {
		return core.Collection{}, notFound
	}
	choice, ok, err := inv.deps.Picker.Pick("Choose "+string(kind), keys)
	if err != nil {
		return core.Collection{}, fmt.Errorf("picking %s: %w", kind, err)
	}
	if !ok {
		return core.Collection{}, notFound
	}
	col, found := inv.deps.Library.Get(kind, choice)
	if !found {
		return core.Collection{}, fmt.Errorf("%w: %s %q", cerrors.ErrCollectionNotFound, kind, choice)
	}
	return col, nil
}

func shuffle(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
