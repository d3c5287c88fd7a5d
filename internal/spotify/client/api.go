package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tessro/cadence/internal/core"
)

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices returns the user's available playback devices.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the current playback state, or nil when nothing is
// loaded on any device.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state *PlaybackState
	if err := c.Get(ctx, "/me/player", &state); err != nil {
		return nil, err
	}
	return state, nil
}

// GetTrack returns a single track.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	var track Track
	if err := c.Get(ctx, "/tracks/"+url.PathEscape(id), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// ResolveTrack fetches a track and converts it for playback.
func (c *Client) ResolveTrack(ctx context.Context, id string) (core.Track, error) {
	t, err := c.GetTrack(ctx, id)
	if err != nil {
		return core.Track{}, fmt.Errorf("resolving track %s: %w", id, err)
	}
	return convertTrack(t), nil
}

// GetMyPlaylists returns every playlist in the user's library. Track IDs are
// not filled in.
func (c *Client) GetMyPlaylists(ctx context.Context) ([]core.Collection, error) {
	playlists, err := collect[Playlist](ctx, c, "/me/playlists?limit=50")
	if err != nil {
		return nil, err
	}
	out := make([]core.Collection, 0, len(playlists))
	for i := range playlists {
		out = append(out, convertPlaylist(&playlists[i]))
	}
	return out, nil
}

// GetPlaylistTrackIDs returns the playable track IDs of a playlist in order.
// Local files and removed tracks are skipped.
func (c *Client) GetPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks?limit=100"
	items, err := collect[PlaylistItem](ctx, c, path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, item := range items {
		if item.IsLocal || item.Track == nil || item.Track.IsLocal || item.Track.ID == "" {
			continue
		}
		ids = append(ids, item.Track.ID)
	}
	return ids, nil
}

// GetMySavedAlbums returns every saved album. Track IDs are filled in from the
// first page embedded in the response; albums with more tracks than that are
// left without IDs so the caller fetches them with GetAlbumTrackIDs.
func (c *Client) GetMySavedAlbums(ctx context.Context) ([]core.Collection, error) {
	saved, err := collect[SavedAlbum](ctx, c, "/me/albums?limit=50")
	if err != nil {
		return nil, err
	}
	out := make([]core.Collection, 0, len(saved))
	for i := range saved {
		out = append(out, convertAlbum(&saved[i].Album))
	}
	return out, nil
}

// GetAlbumTrackIDs returns an album's track IDs in order.
func (c *Client) GetAlbumTrackIDs(ctx context.Context, albumID string) ([]string, error) {
	path := "/albums/" + url.PathEscape(albumID) + "/tracks?limit=50"
	tracks, err := collect[Track](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return trackIDs(tracks), nil
}

// collect follows Next links until every page has been read.
func collect[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	for path != "" {
		var page Page[T]
		if err := c.Get(ctx, path, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		path = page.Next
	}
	return out, nil
}
