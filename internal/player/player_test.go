package player

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

type fakeEngine struct {
	mu     sync.Mutex
	loads  []string
	stops  int
	closed bool
	fail   map[string]bool
	events chan core.EngineEvent
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		fail:   make(map[string]bool),
		events: make(chan core.EngineEvent, 8),
	}
}

func (e *fakeEngine) Load(_ context.Context, id string, _ bool, _ int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, id)
	if e.fail[id] {
		return cerrors.ErrTrackUnavailable
	}
	return nil
}

func (e *fakeEngine) Stop(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	return nil
}

func (e *fakeEngine) Events() <-chan core.EngineEvent { return e.events }

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loads...)
}

type recordingIndicator struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingIndicator) NowPlaying(t core.Track) { r.add("now:" + t.ID) }
func (r *recordingIndicator) Stopped()                { r.add("stopped") }
func (r *recordingIndicator) Idle()                   { r.add("idle") }

func (r *recordingIndicator) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func track(id string) core.Track {
	return core.Track{ID: id, Title: "Song " + id, Artist: "Artist"}
}

func ids(tracks []core.Track) []string {
	var out []string
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func endOfTrack(id string) core.EngineEvent {
	return core.EngineEvent{Type: core.EventEndOfTrack, TrackID: id}
}

func assertCurrent(t *testing.T, l *Loop, want string) {
	t.Helper()
	got, ok := l.Current()
	if want == "" {
		if ok {
			t.Fatalf("current = %q, want none", got.ID)
		}
		return
	}
	if !ok || got.ID != want {
		t.Fatalf("current = %q (set=%v), want %q", got.ID, ok, want)
	}
}

func assertPending(t *testing.T, l *Loop, want ...string) {
	t.Helper()
	if got := ids(l.Pending()); !reflect.DeepEqual(got, want) {
		t.Fatalf("pending = %v, want %v", got, want)
	}
}

func TestStartPlayingClearsQueue(t *testing.T) {
	eng := newFakeEngine()
	l := New(eng)
	ctx := context.Background()

	l.handle(ctx, AddToQueue("", track("a")))
	l.handle(ctx, AddToQueue("", track("b")))
	assertCurrent(t, l, "")
	assertPending(t, l, "a", "b")

	l.handle(ctx, StartPlaying("", track("c")))
	assertCurrent(t, l, "c")
	assertPending(t, l)

	l.handleEvent(ctx, endOfTrack("c"))
	assertCurrent(t, l, "")
	if l.State() != Idle {
		t.Errorf("State() = %v, want idle", l.State())
	}
	if got := eng.Loads(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("loads = %v, want [c]", got)
	}
}

func TestStartPlayingReplacesRequest(t *testing.T) {
	eng := newFakeEngine()
	l := New(eng)
	ctx := context.Background()

	l.handle(ctx, StartPlaying("r1", track("x")))
	l.handle(ctx, AddToQueue("r1", track("a")))
	l.handle(ctx, AddToQueue("r1", track("b")))
	l.handle(ctx, StartPlaying("r2", track("c")))

	assertCurrent(t, l, "c")
	assertPending(t, l)
	if got := eng.Loads(); !reflect.DeepEqual(got, []string{"x", "c"}) {
		t.Errorf("loads = %v", got)
	}
}

func TestAddToQueueWhileIdleDoesNotPlay(t *testing.T) {
	tests := []struct {
		name  string
		setup []Message
		add   Message
	}{
		{"new loop", nil, AddToQueue("", track("late"))},
		{"after stop", []Message{
			StartPlaying("r", track("a")),
			StopPlaying(),
		}, AddToQueue("", track("late"))},
		{"after drain", []Message{
			StartPlaying("r", track("a")),
		}, AddToQueue("r", track("late"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			l := New(eng)
			ctx := context.Background()

			for _, m := range tt.setup {
				l.handle(ctx, m)
			}
			if cur, ok := l.Current(); ok {
				l.handleEvent(ctx, endOfTrack(cur.ID))
			}
			loads := len(eng.Loads())

			l.handle(ctx, tt.add)

			assertCurrent(t, l, "")
			assertPending(t, l, "late")
			if got := len(eng.Loads()); got != loads {
				t.Errorf("AddToQueue while idle issued %d loads", got-loads)
			}
		})
	}
}

func TestStopResetsFully(t *testing.T) {
	tests := []struct {
		name     string
		setup    []Message
		wantStop int
	}{
		{"idle", nil, 0},
		{"playing", []Message{StartPlaying("r", track("a"))}, 1},
		{"playing with queue", []Message{
			StartPlaying("r", track("a")),
			AddToQueue("r", track("b")),
			AddToQueue("r", track("c")),
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			ind := &recordingIndicator{}
			l := New(eng, WithIndicator(ind))
			ctx := context.Background()

			for _, m := range tt.setup {
				l.handle(ctx, m)
			}
			l.handle(ctx, StopPlaying())

			assertCurrent(t, l, "")
			assertPending(t, l)
			if eng.stops != tt.wantStop {
				t.Errorf("engine stops = %d, want %d", eng.stops, tt.wantStop)
			}
			if last := ind.events[len(ind.events)-1]; last != "stopped" {
				t.Errorf("last indicator event = %q, want stopped", last)
			}
		})
	}
}

func TestEndOfTrackDraining(t *testing.T) {
	eng := newFakeEngine()
	ind := &recordingIndicator{}
	l := New(eng, WithIndicator(ind))
	ctx := context.Background()

	l.handle(ctx, StartPlaying("r", track("c")))
	l.handle(ctx, AddToQueue("r", track("x")))
	l.handle(ctx, AddToQueue("r", track("y")))

	l.handleEvent(ctx, endOfTrack("c"))
	assertCurrent(t, l, "x")
	assertPending(t, l, "y")

	l.handleEvent(ctx, endOfTrack("x"))
	assertCurrent(t, l, "y")
	assertPending(t, l)

	l.handleEvent(ctx, endOfTrack("y"))
	assertCurrent(t, l, "")
	if l.State() != Idle {
		t.Errorf("State() = %v, want idle", l.State())
	}

	loads := len(eng.Loads())
	l.handleEvent(ctx, endOfTrack("y"))
	if got := len(eng.Loads()); got != loads {
		t.Errorf("end of track while idle issued %d loads", got-loads)
	}

	want := []string{"now:c", "now:x", "now:y", "idle"}
	if !reflect.DeepEqual(ind.events, want) {
		t.Errorf("indicator = %v, want %v", ind.events, want)
	}
}

func TestEndOfTrackForOtherTrackIgnored(t *testing.T) {
	l := New(newFakeEngine())
	ctx := context.Background()

	l.handle(ctx, StartPlaying("r", track("a")))
	l.handle(ctx, AddToQueue("r", track("b")))
	l.handleEvent(ctx, endOfTrack("old"))
	l.handleEvent(ctx, core.EngineEvent{Type: core.EventPaused, TrackID: "a"})

	assertCurrent(t, l, "a")
	assertPending(t, l, "b")
}

func TestLoadFailureSkipsTrack(t *testing.T) {
	eng := newFakeEngine()
	eng.fail["bad"] = true
	l := New(eng)
	ctx := context.Background()

	l.handle(ctx, StartPlaying("r", track("a")))
	l.handle(ctx, AddToQueue("r", track("bad")))
	l.handle(ctx, AddToQueue("r", track("c")))

	l.handleEvent(ctx, endOfTrack("a"))
	assertCurrent(t, l, "c")
	assertPending(t, l)
}

func TestBadFirstTrackRecovers(t *testing.T) {
	eng := newFakeEngine()
	eng.fail["bad"] = true
	eng.fail["worse"] = true
	l := New(eng)
	ctx := context.Background()

	l.handle(ctx, StartPlaying("r", track("bad")))
	assertCurrent(t, l, "")

	// Another request's stragglers neither play nor queue.
	l.handle(ctx, AddToQueue("other", track("x")))
	assertCurrent(t, l, "")
	assertPending(t, l)

	l.handle(ctx, AddToQueue("r", track("worse")))
	assertCurrent(t, l, "")

	l.handle(ctx, AddToQueue("r", track("b")))
	assertCurrent(t, l, "b")

	l.handle(ctx, AddToQueue("r", track("c")))
	assertPending(t, l, "c")

	if got := eng.Loads(); !reflect.DeepEqual(got, []string{"bad", "worse", "b"}) {
		t.Errorf("loads = %v", got)
	}
}

func TestStaleAddToQueueDropped(t *testing.T) {
	l := New(newFakeEngine())
	ctx := context.Background()

	l.handle(ctx, StartPlaying("old", track("a")))
	l.handle(ctx, StartPlaying("new", track("b")))
	l.handle(ctx, AddToQueue("old", track("straggler")))
	l.handle(ctx, AddToQueue("new", track("c")))

	assertCurrent(t, l, "b")
	assertPending(t, l, "c")

	l.handle(ctx, StopPlaying())
	l.handle(ctx, AddToQueue("new", track("late")))
	assertCurrent(t, l, "")
	assertPending(t, l)

	// Messages without a request are always accepted.
	l.handle(ctx, StartPlaying("", track("d")))
	l.handle(ctx, AddToQueue("", track("e")))
	assertCurrent(t, l, "d")
	assertPending(t, l, "e")
}

func TestQuitEndsHandling(t *testing.T) {
	l := New(newFakeEngine())
	if l.handle(context.Background(), Quit()) {
		t.Error("handle(Quit) = true, want false")
	}
}

func TestRunEndToEnd(t *testing.T) {
	eng := newFakeEngine()
	l := New(eng)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	s := l.Sender()
	for _, m := range []Message{
		StartPlaying("trip", track("t1")),
		AddToQueue("trip", track("t2")),
		AddToQueue("trip", track("t3")),
	} {
		if err := s.Send(ctx, m); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	waitForLoads(t, eng, 1)
	eng.events <- endOfTrack("t1")
	waitForLoads(t, eng, 2)
	eng.events <- endOfTrack("t2")
	waitForLoads(t, eng, 3)

	if err := s.Send(ctx, Quit()); err != nil {
		t.Fatalf("Send(Quit) error = %v", err)
	}

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-ctx.Done():
		t.Fatal("loop did not exit")
	}

	if got := eng.Loads(); !reflect.DeepEqual(got, []string{"t1", "t2", "t3"}) {
		t.Errorf("loads = %v", got)
	}
	assertCurrent(t, l, "")
	assertPending(t, l)
	if eng.stops != 1 {
		t.Errorf("stops = %d, want 1 (quit while playing)", eng.stops)
	}
	if !eng.closed {
		t.Error("engine not closed on quit")
	}

	if err := s.Send(ctx, StopPlaying()); !errors.Is(err, cerrors.ErrPlayerStopped) {
		t.Errorf("Send after quit error = %v, want ErrPlayerStopped", err)
	}
}

func TestRunContextCancelled(t *testing.T) {
	eng := newFakeEngine()
	l := New(eng)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed after Run returned")
	}
	if !eng.closed {
		t.Error("engine not closed")
	}
}

func waitForLoads(t *testing.T, eng *fakeEngine, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(eng.Loads()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d loads, got %v", n, eng.Loads())
}
