// Package sim is a playback engine that plays nothing. Each loaded track
// "ends" after a fixed length, which makes it useful for dry runs and tests.
package sim

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

// Engine implements core.Engine with timers.
type Engine struct {
	length     time.Duration
	logger     *log.Logger
	unplayable map[string]bool

	mu     sync.Mutex
	events chan core.EngineEvent
	timer  *time.Timer
	gen    int
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithUnplayable makes Load fail for the given track IDs.
func WithUnplayable(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.unplayable[id] = true
		}
	}
}

// New creates an engine whose tracks last length.
func New(length time.Duration, opts ...Option) *Engine {
	if length <= 0 {
		length = 3 * time.Second
	}
	e := &Engine{
		length:     length,
		logger:     log.New(io.Discard),
		unplayable: make(map[string]bool),
		events:     make(chan core.EngineEvent, 16),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load starts the end-of-track timer for trackID.
func (e *Engine) Load(ctx context.Context, trackID string, autostart bool, positionMs int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if trackID == "" || e.unplayable[trackID] {
		return cerrors.ErrTrackUnavailable
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return cerrors.ErrPlayerStopped
	}

	e.stopTimer()
	e.gen++
	gen := e.gen
	e.logger.Debug("sim load", "track", trackID, "autostart", autostart, "position_ms", positionMs)
	if !autostart {
		return nil
	}

	remaining := max(e.length-time.Duration(positionMs)*time.Millisecond, 0)
	e.timer = time.AfterFunc(remaining, func() { e.finish(gen, trackID) })
	return nil
}

// Stop cancels the pending end-of-track.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimer()
	e.gen++
	return nil
}

// Events returns the event stream.
func (e *Engine) Events() <-chan core.EngineEvent {
	return e.events
}

// Close stops timers and closes the event stream.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopTimer()
	close(e.events)
	return nil
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) finish(gen int, trackID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen {
		return
	}
	e.timer = nil

	ev := core.EngineEvent{Type: core.EventEndOfTrack, TrackID: trackID, Timestamp: time.Now()}
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("sim event buffer full, dropping end of track", "track", trackID)
	}
}
