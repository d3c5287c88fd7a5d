package player

import (
	"context"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

// MessageKind identifies a player message.
type MessageKind int

const (
	MsgStartPlaying MessageKind = iota
	MsgAddToQueue
	MsgStopPlaying
	MsgQuit
)

func (k MessageKind) String() string {
	switch k {
	case MsgStartPlaying:
		return "start_playing"
	case MsgAddToQueue:
		return "add_to_queue"
	case MsgStopPlaying:
		return "stop_playing"
	case MsgQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Message is a request for the player loop. Request ties StartPlaying and
// AddToQueue messages from the same play command together; it is empty for
// messages that belong to no particular request.
type Message struct {
	Kind    MessageKind
	Track   core.Track
	Request string
}

// StartPlaying replaces whatever is playing with t.
func StartPlaying(request string, t core.Track) Message {
	return Message{Kind: MsgStartPlaying, Track: t, Request: request}
}

// AddToQueue appends t to the queue.
func AddToQueue(request string, t core.Track) Message {
	return Message{Kind: MsgAddToQueue, Track: t, Request: request}
}

// StopPlaying halts playback and empties the queue.
func StopPlaying() Message {
	return Message{Kind: MsgStopPlaying}
}

// Quit stops playback and ends the loop.
func Quit() Message {
	return Message{Kind: MsgQuit}
}

// Sender is the producer side of the loop's message channel. It is safe for
// concurrent use.
type Sender struct {
	ch   chan<- Message
	done <-chan struct{}
}

// Send delivers m to the loop in send order. It returns ErrPlayerStopped once
// the loop has exited.
func (s Sender) Send(ctx context.Context, m Message) error {
	select {
	case <-s.done:
		return cerrors.ErrPlayerStopped
	default:
	}

	select {
	case s.ch <- m:
		return nil
	case <-s.done:
		return cerrors.ErrPlayerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
