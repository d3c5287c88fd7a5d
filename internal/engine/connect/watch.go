package connect

import (
	"time"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/spotify/client"
)

// watch tracks the most recently loaded track until it ends.
type watch struct {
	trackID string
	since   time.Time
	// active is false for tracks loaded paused; they never end on their own.
	active bool
	// seen is set once the device reports the track.
	seen bool
	// progressMS and durationMS are from the last poll that showed the track.
	progressMS int
	durationMS int
}

// detect compares two polls and returns the events they imply together with
// the updated watch.
func detect(w watch, prev, curr *client.PlaybackState, now time.Time) ([]core.EngineEvent, watch) {
	var events []core.EngineEvent

	ended, next := trackEnded(w, curr, now)
	if ended {
		events = append(events, core.EngineEvent{Type: core.EventEndOfTrack, TrackID: w.trackID, Timestamp: now})
	}
	w = next

	if prev != nil && curr != nil {
		switch {
		case prev.IsPlaying && !curr.IsPlaying:
			events = append(events, core.EngineEvent{Type: core.EventPaused, TrackID: curr.TrackID(), Timestamp: now})
		case !prev.IsPlaying && curr.IsPlaying:
			events = append(events, core.EngineEvent{Type: core.EventResumed, TrackID: curr.TrackID(), Timestamp: now})
		}
		if prev.Device.ID != curr.Device.ID {
			events = append(events, core.EngineEvent{Type: core.EventDeviceChanged, TrackID: curr.TrackID(), Timestamp: now})
		}
	}

	return events, w
}

// trackEnded decides whether the watched track has finished. Once it has, the
// returned watch is cleared so the end is reported only once.
func trackEnded(w watch, curr *client.PlaybackState, now time.Time) (bool, watch) {
	if w.trackID == "" || !w.active {
		return false, w
	}

	if curr.TrackID() == w.trackID {
		if w.seen && !curr.IsPlaying && wasCompleted(w.progressMS, w.durationMS) {
			// The device stops on the last frame or rewinds to the start.
			return true, watch{}
		}
		w.seen = true
		w.progressMS = curr.ProgressMS
		if curr.Item != nil {
			w.durationMS = curr.Item.DurationMS
		}
		return false, w
	}

	if w.seen {
		// The device moved on to something else or stopped.
		return true, watch{}
	}
	if now.Sub(w.since) > loadGrace {
		return true, watch{}
	}
	return false, w
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(progressMS, durationMS int) bool {
	if durationMS == 0 {
		return false
	}
	// Consider completed if progress is >= 95% of duration
	threshold := float64(durationMS) * 0.95
	return float64(progressMS) >= threshold
}
