// Package connect plays tracks on a Spotify Connect device through the Web
// API and turns polled playback state into engine events.
package connect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/spotify/client"
)

// API is the subset of the Spotify client the engine drives.
type API interface {
	Play(ctx context.Context, deviceID string, opts *client.PlayOptions) error
	Pause(ctx context.Context, deviceID string) error
	GetPlaybackState(ctx context.Context) (*client.PlaybackState, error)
}

const (
	defaultInterval = time.Second
	// loadGrace is how long a loaded track may go unseen in the playback
	// state before it is treated as finished.
	loadGrace = 10 * time.Second
)

// Engine implements core.Engine on a Connect device.
type Engine struct {
	api      API
	deviceID string
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	events chan core.EngineEvent
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	watch watch
	once  sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval sets the playback state polling interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine for deviceID and starts watching playback state.
// An empty deviceID targets whichever device is active.
func New(api API, deviceID string, opts ...Option) *Engine {
	e := &Engine{
		api:      api,
		deviceID: deviceID,
		interval: defaultInterval,
		logger:   log.New(io.Discard),
		now:      time.Now,
		events:   make(chan core.EngineEvent, 16),
	}
	for _, opt := range opts {
		opt(e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go e.run(ctx)
	return e
}

// Load starts trackID on the device at positionMs, pausing straight away
// when autostart is false.
func (e *Engine) Load(ctx context.Context, trackID string, autostart bool, positionMs int) error {
	err := e.api.Play(ctx, e.deviceID, &client.PlayOptions{
		URIs:       []string{core.TrackURI(trackID)},
		PositionMS: positionMs,
	})
	if err != nil {
		return mapError(err)
	}
	if !autostart {
		if err := e.api.Pause(ctx, e.deviceID); err != nil {
			return mapError(err)
		}
	}

	e.mu.Lock()
	e.watch = watch{trackID: trackID, since: e.now(), active: autostart}
	e.mu.Unlock()
	return nil
}

// Stop pauses the device.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.watch = watch{}
	e.mu.Unlock()

	err := e.api.Pause(ctx, e.deviceID)
	if err == nil || isAlreadyPaused(err) {
		return nil
	}
	return mapError(err)
}

// Events returns the event stream.
func (e *Engine) Events() <-chan core.EngineEvent {
	return e.events
}

// Close stops the watcher and closes the event stream.
func (e *Engine) Close() error {
	e.once.Do(func() {
		e.cancel()
		e.wg.Wait()
		close(e.events)
	})
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var prev *client.PlaybackState
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		curr, err := e.api.GetPlaybackState(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.logger.Debug("polling playback state", "err", err)
			}
			continue
		}

		e.mu.Lock()
		w := e.watch
		events, next := detect(w, prev, curr, e.now())
		// A Load or Stop that raced this poll wins.
		if e.watch == w {
			e.watch = next
		} else {
			events = withoutEndOfTrack(events)
		}
		e.mu.Unlock()

		for _, ev := range events {
			if !e.emit(ctx, ev) {
				return
			}
		}
		prev = curr
	}
}

// emit delivers EndOfTrack reliably and drops other events when the buffer is
// full. It returns false once the engine is closing.
func (e *Engine) emit(ctx context.Context, ev core.EngineEvent) bool {
	if ev.Type == core.EventEndOfTrack {
		select {
		case e.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	select {
	case e.events <- ev:
	default:
		// Drop event if channel is full
	}
	return true
}

func withoutEndOfTrack(events []core.EngineEvent) []core.EngineEvent {
	out := events[:0]
	for _, ev := range events {
		if ev.Type != core.EventEndOfTrack {
			out = append(out, ev)
		}
	}
	return out
}

func mapError(err error) error {
	if client.IsNoActiveDeviceError(err) && !errors.Is(err, cerrors.ErrNoActiveDevice) {
		return fmt.Errorf("%w: %v", cerrors.ErrNoActiveDevice, err)
	}
	return err
}

// isAlreadyPaused reports the 403 Spotify returns when pausing a device that
// is not playing.
func isAlreadyPaused(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorInfo.Status == http.StatusForbidden &&
		!errors.Is(err, cerrors.ErrPremiumRequired)
}
