// Package player runs the loop that sequences tracks through a playback engine.
package player

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
)

// State is derived from the loop's queue and current track.
type State int

const (
	Idle State = iota
	Playing
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Indicator shows playback transitions to the user.
type Indicator interface {
	NowPlaying(t core.Track)
	Stopped()
	Idle()
}

type nopIndicator struct{}

func (nopIndicator) NowPlaying(core.Track) {}
func (nopIndicator) Stopped()              {}
func (nopIndicator) Idle()                 {}

const defaultBuffer = 64

// Loop owns the track queue and the engine. Only the goroutine running Run
// touches either.
type Loop struct {
	engine    core.Engine
	indicator Indicator
	logger    *log.Logger
	timeout   time.Duration

	msgs chan Message
	done chan struct{}

	queue   *core.Queue
	current *core.Track
	request string
	// draining is set between an EndOfTrack and the load of the next track.
	draining bool
	// awaiting is set when the StartPlaying track of request failed to load
	// and nothing is playing, so that request's next track starts at once.
	awaiting bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithIndicator sets the now-playing indicator.
func WithIndicator(i Indicator) Option {
	return func(l *Loop) {
		if i != nil {
			l.indicator = i
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBuffer sets the message channel capacity.
func WithBuffer(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.msgs = make(chan Message, n)
		}
	}
}

// WithEngineTimeout bounds each engine call.
func WithEngineTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.timeout = d
	}
}

// New creates a loop driving engine. The loop takes ownership of the engine
// and closes it when Run returns.
func New(engine core.Engine, opts ...Option) *Loop {
	l := &Loop{
		engine:    engine,
		indicator: nopIndicator{},
		logger:    log.New(io.Discard),
		timeout:   15 * time.Second,
		msgs:      make(chan Message, defaultBuffer),
		done:      make(chan struct{}),
		queue:     core.NewQueue(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sender returns a handle for sending messages to the loop.
func (l *Loop) Sender() Sender {
	return Sender{ch: l.msgs, done: l.done}
}

// Done is closed when Run has returned and the engine is released.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// State reports the derived playback state. It must only be called from the
// loop's goroutine or after Run has returned.
func (l *Loop) State() State {
	switch {
	case l.current != nil:
		return Playing
	case l.draining:
		return Draining
	default:
		return Idle
	}
}

// Run processes messages and engine events until Quit is received or ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	events := l.engine.Events()
	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()

		case m := <-l.msgs:
			if !l.handle(ctx, m) {
				l.shutdown()
				return nil
			}

		case ev, ok := <-events:
			if !ok {
				// Engine closed its stream; keep serving messages.
				events = nil
				continue
			}
			l.handleEvent(ctx, ev)
		}
	}
}

// handle applies one message. It returns false when the loop should exit.
func (l *Loop) handle(ctx context.Context, m Message) bool {
	switch m.Kind {
	case MsgStartPlaying:
		l.logger.Debug("start playing", "track", m.Track.ID, "request", m.Request)
		l.queue.Clear()
		l.request = m.Request
		l.play(ctx, m.Track)
		l.awaiting = l.current == nil

	case MsgAddToQueue:
		if m.Request != "" && m.Request != l.request {
			l.logger.Debug("dropping stale track", "track", m.Track.ID, "request", m.Request)
			return true
		}
		if l.awaiting && l.current == nil {
			l.awaiting = !l.load(ctx, m.Track)
			return true
		}
		l.queue.PushBack(m.Track)

	case MsgStopPlaying:
		l.logger.Debug("stop playing")
		l.stop(ctx)
		l.request = ""
		l.indicator.Stopped()

	case MsgQuit:
		l.logger.Debug("quit")
		return false

	default:
		l.logger.Warn("unknown player message", "kind", m.Kind)
	}
	return true
}

func (l *Loop) handleEvent(ctx context.Context, ev core.EngineEvent) {
	if ev.Type != core.EventEndOfTrack {
		l.logger.Debug("ignoring engine event", "type", ev.Type)
		return
	}
	if l.current == nil {
		return
	}
	if ev.TrackID != "" && ev.TrackID != l.current.ID {
		l.logger.Debug("ignoring end of track for another track", "track", ev.TrackID, "current", l.current.ID)
		return
	}

	l.logger.Debug("end of track", "track", l.current.ID)
	l.current = nil
	l.draining = true
	l.advance(ctx)
}

// advance loads the next queued track that the engine accepts. It leaves the
// loop idle when the queue runs dry.
func (l *Loop) advance(ctx context.Context) {
	defer func() { l.draining = false }()

	for {
		next, ok := l.queue.PopFront()
		if !ok {
			l.indicator.Idle()
			return
		}
		if l.load(ctx, next) {
			return
		}
	}
}

// play loads t, skipping through the queue if the engine rejects it.
func (l *Loop) play(ctx context.Context, t core.Track) {
	if l.load(ctx, t) {
		return
	}
	l.draining = true
	l.advance(ctx)
}

// load makes t current and starts it. A load failure is logged and reported
// as false; the track is then treated as skipped.
func (l *Loop) load(ctx context.Context, t core.Track) bool {
	callCtx, cancel := l.callContext(ctx)
	defer cancel()

	if err := l.engine.Load(callCtx, t.ID, true, 0); err != nil {
		l.logger.Warn("skipping track", "track", t.ID, "title", t.Title, "err", err)
		l.current = nil
		return false
	}

	l.current = &t
	l.indicator.NowPlaying(t)
	return true
}

// stop halts the engine if a track is in flight and empties the queue.
func (l *Loop) stop(ctx context.Context) {
	if l.current != nil {
		callCtx, cancel := l.callContext(ctx)
		if err := l.engine.Stop(callCtx); err != nil {
			l.logger.Warn("stopping engine", "err", err)
		}
		cancel()
	}
	l.queue.Clear()
	l.current = nil
	l.draining = false
	l.awaiting = false
}

func (l *Loop) shutdown() {
	// The caller's context may already be cancelled.
	l.stop(context.Background())
	if err := l.engine.Close(); err != nil {
		l.logger.Warn("closing engine", "err", err)
	}
}

func (l *Loop) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

// Current returns the track in flight, if any. Same goroutine rules as State.
func (l *Loop) Current() (core.Track, bool) {
	if l.current == nil {
		return core.Track{}, false
	}
	return *l.current, true
}

// Pending returns a copy of the queued tracks. Same goroutine rules as State.
func (l *Loop) Pending() []core.Track {
	return l.queue.Tracks()
}
