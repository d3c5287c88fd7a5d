package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/tessro/cadence/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.Client(), WithBaseURL(srv.URL))
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{"no params", "/me", nil, "/me"},
		{"empty params", "/me", map[string]string{}, "/me"},
		{"single param", "/me/player/play", map[string]string{"device_id": "abc"}, "/me/player/play?device_id=abc"},
		{"existing query", "/me/albums?limit=50", map[string]string{"offset": "50"}, "/me/albums?limit=50&offset=50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{401, `{"error":{"status":401,"message":"Invalid access token"}}`, cerrors.ErrNotAuthenticated},
		{403, `{"error":{"status":403,"message":"Player command failed: Premium required","reason":"PREMIUM_REQUIRED"}}`, cerrors.ErrPremiumRequired},
		{404, `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`, cerrors.ErrNoActiveDevice},
		{429, `rate limited`, cerrors.ErrRateLimited},
		{400, `{"error":{"status":400,"message":"bad"}}`, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := parseAPIError(tt.status, []byte(tt.body))
			if tt.want == nil {
				if err.Unwrap() != nil {
					t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
		})
	}

	err := parseAPIError(401, []byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
	if got := err.Error(); got != "Spotify API error 401: Invalid access token" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]string{"id": "u1", "display_name": "Ada"})
	}))

	user, err := c.GetCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if user.Name() != "Ada" || calls.Load() != 3 {
		t.Errorf("user = %+v after %d calls", user, calls.Load())
	}
}

func TestRequestHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, Track{ID: "t1", Name: "Song"})
	}))

	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if _, err := c.GetTrack(context.Background(), "t1"); err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if !reflect.DeepEqual(waits, []time.Duration{2 * time.Second}) {
		t.Errorf("waits = %v, want [2s]", waits)
	}
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"status":401,"message":"The access token expired"}}`)
	}))

	_, err := c.GetCurrentUser(context.Background())
	if !errors.Is(err, cerrors.ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestGetPlaylistTrackIDsPaginates(t *testing.T) {
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			writeJSON(w, map[string]any{
				"items": []map[string]any{
					{"track": map[string]any{"id": "t1"}},
					{"is_local": true, "track": map[string]any{"id": ""}},
					{"track": nil},
				},
				"next": base + "/playlists/p1/tracks?offset=3",
			})
			return
		}
		writeJSON(w, map[string]any{
			"items": []map[string]any{{"track": map[string]any{"id": "t2"}}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	c := New(srv.Client(), WithBaseURL(srv.URL))
	ids, err := c.GetPlaylistTrackIDs(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlaylistTrackIDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"t1", "t2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestGetMySavedAlbums(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"album": map[string]any{
					"id": "a1", "name": "Blue",
					"artists": []map[string]any{{"name": "Joni"}},
					"tracks":  map[string]any{"items": []map[string]any{{"id": "b1"}, {"id": "b2"}}},
				}},
				{"album": map[string]any{
					"id": "a2", "name": "Long",
					"tracks": map[string]any{"items": []map[string]any{{"id": "l1"}}, "next": "https://example.invalid/more"},
				}},
			},
		})
	}))

	albums, err := c.GetMySavedAlbums(context.Background())
	if err != nil {
		t.Fatalf("GetMySavedAlbums() error = %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("got %d albums", len(albums))
	}
	if albums[0].Owner != "Joni" || !reflect.DeepEqual(albums[0].TrackIDs, []string{"b1", "b2"}) {
		t.Errorf("albums[0] = %+v", albums[0])
	}
	if albums[1].TrackIDs != nil {
		t.Errorf("truncated album should have no track IDs, got %v", albums[1].TrackIDs)
	}
}

func TestGetPlaybackStateNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	state, err := c.GetPlaybackState(context.Background())
	if err != nil {
		t.Fatalf("GetPlaybackState() error = %v", err)
	}
	if state != nil || state.TrackID() != "" {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestPlaySendsURIs(t *testing.T) {
	var got PlayOptions
	var query string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/me/player/play" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		query = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.Play(context.Background(), "dev1", &PlayOptions{URIs: []string{"spotify:track:t1"}})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if query != "device_id=dev1" || !reflect.DeepEqual(got.URIs, []string{"spotify:track:t1"}) {
		t.Errorf("query = %q, body = %+v", query, got)
	}
}

func TestConvertTrack(t *testing.T) {
	track := convertTrack(&Track{
		ID:         "track123",
		Name:       "Test Song",
		DurationMS: 180000,
		Artists:    []Artist{{Name: "Artist One"}, {Name: "Artist Two"}},
		Album:      Album{Name: "Test Album"},
	})

	if track.URI != "spotify:track:track123" {
		t.Errorf("URI = %q", track.URI)
	}
	if track.Title != "Test Song" || track.Artist != "Artist One" || track.Album != "Test Album" {
		t.Errorf("track = %+v", track)
	}
	if track.Duration != 180*time.Second {
		t.Errorf("Duration = %v", track.Duration)
	}
}

func TestRateLimitRespectsContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Track{ID: "t1"})
	}))
	WithRateLimit(0.001, 1)(c)

	ctx := context.Background()
	if _, err := c.GetTrack(ctx, "t1"); err != nil {
		t.Fatalf("first GetTrack() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := c.GetTrack(ctx, "t1"); err == nil {
		t.Error("second GetTrack() should fail while rate limited")
	}
}
