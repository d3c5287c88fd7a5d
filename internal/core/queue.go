package core

// Queue is a FIFO of tracks waiting to be played. It is not safe for
// concurrent use; the player loop owns it.
//
// The track currently loaded in the engine is never a member of the queue.
type Queue struct {
	tracks []Track
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// PushBack appends a track to the tail.
func (q *Queue) PushBack(t Track) {
	q.tracks = append(q.tracks, t)
}

// PopFront removes and returns the earliest queued track. The boolean is
// false when the queue is empty.
func (q *Queue) PopFront() (Track, bool) {
	if q.IsEmpty() {
		return Track{}, false
	}
	t := q.tracks[0]
	q.tracks[0] = Track{}
	q.tracks = q.tracks[1:]
	if len(q.tracks) == 0 {
		q.tracks = nil
	}
	return t, true
}

// Clear discards every pending track.
func (q *Queue) Clear() {
	q.tracks = nil
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Tracks returns a copy of the pending tracks in play order.
func (q *Queue) Tracks() []Track {
	if q.IsEmpty() {
		return nil
	}
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}
