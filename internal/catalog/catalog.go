// Package catalog holds the user's playlists and albums, keyed by name.
package catalog

import (
	"strings"

	"github.com/tessro/cadence/internal/core"
)

// shelf is a name-keyed set of collections that remembers insertion order.
type shelf struct {
	keys  []string
	items map[string]core.Collection
}

func (s *shelf) add(c core.Collection) {
	if s.items == nil {
		s.items = make(map[string]core.Collection)
	}
	if _, ok := s.items[c.Name]; !ok {
		s.keys = append(s.keys, c.Name)
	}
	s.items[c.Name] = c
}

// Catalog is read-only once loaded and safe to share between goroutines.
type Catalog struct {
	playlists shelf
	albums    shelf
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

func (c *Catalog) shelf(kind core.CollectionKind) *shelf {
	switch kind {
	case core.KindPlaylist:
		return &c.playlists
	case core.KindAlbum:
		return &c.albums
	default:
		return nil
	}
}

// Add stores col under its name. A later collection with the same name
// replaces the earlier one but keeps its position.
func (c *Catalog) Add(col core.Collection) {
	if s := c.shelf(col.Kind); s != nil {
		s.add(col)
	}
}

// Keys returns collection names of the given kind in insertion order.
func (c *Catalog) Keys(kind core.CollectionKind) []string {
	s := c.shelf(kind)
	if s == nil || len(s.keys) == 0 {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the collection with exactly this name.
func (c *Catalog) Get(kind core.CollectionKind, name string) (core.Collection, bool) {
	s := c.shelf(kind)
	if s == nil {
		return core.Collection{}, false
	}
	col, ok := s.items[name]
	return col, ok
}

// Find returns the first collection, in insertion order, whose name contains
// filter. Matching is case-sensitive.
func (c *Catalog) Find(kind core.CollectionKind, filter string) (core.Collection, bool) {
	s := c.shelf(kind)
	if s == nil {
		return core.Collection{}, false
	}
	for _, key := range s.keys {
		if strings.Contains(key, filter) {
			return s.items[key], true
		}
	}
	return core.Collection{}, false
}

// Counts returns the number of playlists and albums.
func (c *Catalog) Counts() (playlists, albums int) {
	return len(c.playlists.keys), len(c.albums.keys)
}
