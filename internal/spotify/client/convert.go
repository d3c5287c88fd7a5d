package client

import (
	"time"

	"github.com/tessro/cadence/internal/core"
)

// convertTrack converts a Spotify track to a core.Track.
func convertTrack(t *Track) core.Track {
	track := core.Track{
		ID:       t.ID,
		URI:      t.URI,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
	if track.URI == "" && t.ID != "" {
		track.URI = core.TrackURI(t.ID)
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

func convertPlaylist(p *Playlist) core.Collection {
	return core.Collection{
		Kind:  core.KindPlaylist,
		ID:    p.ID,
		Name:  p.Name,
		Owner: p.Owner.Name(),
	}
}

func convertAlbum(a *Album) core.Collection {
	col := core.Collection{
		Kind: core.KindAlbum,
		ID:   a.ID,
		Name: a.Name,
	}
	if len(a.Artists) > 0 {
		col.Owner = a.Artists[0].Name
	}
	// Only trust the embedded tracks when they cover the whole album.
	if a.Tracks != nil && a.Tracks.Next == "" {
		col.TrackIDs = trackIDs(a.Tracks.Items)
	}
	return col
}

func trackIDs(tracks []Track) []string {
	var ids []string
	for _, t := range tracks {
		if t.IsLocal || t.ID == "" {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids
}
