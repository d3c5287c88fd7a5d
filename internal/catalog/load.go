package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

// Source lists the user's saved collections.
type Source interface {
	GetMyPlaylists(ctx context.Context) ([]core.Collection, error)
	GetPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	GetMySavedAlbums(ctx context.Context) ([]core.Collection, error)
	GetAlbumTrackIDs(ctx context.Context, albumID string) ([]string, error)
}

// Load builds a catalog from src. A collection whose tracks cannot be listed
// is left out and its error recorded; failing to list either kind at all is
// also recorded, so the result may be partially filled.
func Load(ctx context.Context, src Source, logger *log.Logger) cerrors.PartialResult[*Catalog] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	result := cerrors.PartialResult[*Catalog]{Data: New()}

	playlists, err := src.GetMyPlaylists(ctx)
	if err != nil {
		result.AddError(fmt.Errorf("listing playlists: %w", err))
	}
	for _, p := range playlists {
		ids, err := src.GetPlaylistTrackIDs(ctx, p.ID)
		if err != nil {
			logger.Warn("skipping playlist", "name", p.Name, "err", err)
			result.AddError(fmt.Errorf("playlist %q: %w", p.Name, err))
			continue
		}
		p.Kind = core.KindPlaylist
		p.TrackIDs = ids
		result.Data.Add(p)
	}

	albums, err := src.GetMySavedAlbums(ctx)
	if err != nil {
		result.AddError(fmt.Errorf("listing albums: %w", err))
	}
	for _, a := range albums {
		if len(a.TrackIDs) == 0 {
			ids, err := src.GetAlbumTrackIDs(ctx, a.ID)
			if err != nil {
				logger.Warn("skipping album", "name", a.Name, "err", err)
				result.AddError(fmt.Errorf("album %q: %w", a.Name, err))
				continue
			}
			a.TrackIDs = ids
		}
		a.Kind = core.KindAlbum
		result.Data.Add(a)
	}

	pc, ac := result.Data.Counts()
	logger.Debug("catalog loaded", "playlists", pc, "albums", ac, "errors", len(result.Errors))
	return result
}
