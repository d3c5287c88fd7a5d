package cache

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
)

// Resolver looks up a track by ID.
type Resolver interface {
	Resolve(ctx context.Context, id string) (core.Track, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, id string) (core.Track, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, id string) (core.Track, error) {
	return f(ctx, id)
}

// CachingResolver answers from the store and falls through to next on a miss,
// remembering what next returns. Cache failures are logged, never returned.
type CachingResolver struct {
	store  *Store
	next   Resolver
	logger *log.Logger
}

// NewCachingResolver wraps next with store.
func NewCachingResolver(store *Store, next Resolver, logger *log.Logger) *CachingResolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CachingResolver{store: store, next: next, logger: logger}
}

// Resolve implements Resolver.
func (r *CachingResolver) Resolve(ctx context.Context, id string) (core.Track, error) {
	t, ok, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Warn("track cache read failed", "track", id, "err", err)
	}
	if ok {
		return t, nil
	}

	t, err = r.next.Resolve(ctx, id)
	if err != nil {
		return core.Track{}, err
	}
	if err := r.store.Put(ctx, t); err != nil {
		r.logger.Warn("track cache write failed", "track", id, "err", err)
	}
	return t, nil
}
