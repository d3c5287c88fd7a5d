package core

import (
	"context"
	"time"
)

// EventType identifies an event emitted by a playback engine.
type EventType int

const (
	EventEndOfTrack EventType = iota
	EventPaused
	EventResumed
	EventDeviceChanged
)

func (t EventType) String() string {
	switch t {
	case EventEndOfTrack:
		return "end_of_track"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventDeviceChanged:
		return "device_changed"
	default:
		return "unknown"
	}
}

// EngineEvent is a notification from the playback engine.
type EngineEvent struct {
	Type      EventType
	TrackID   string
	Timestamp time.Time
}

// Engine is the audio engine the player loop drives. Implementations own
// decoding and output; callers only sequence loads.
type Engine interface {
	// Load loads a track and optionally starts it at positionMs.
	Load(ctx context.Context, trackID string, autostart bool, positionMs int) error

	// Stop halts output.
	Stop(ctx context.Context) error

	// Events returns the engine's event stream. The channel is closed by Close.
	Events() <-chan EngineEvent

	// Close releases the engine.
	Close() error
}
