// Package dataset puts an explicit cache in front of a dataset source.
// Entries are keyed by the source identity and its content fingerprint, so a
// changed file or table is reloaded on the next request.
package dataset

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/cache"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Cached loads a dataset through a cache store
type Cached[T any] struct {
	source repository.Source[T]
	store  cache.Store
	mu     sync.Mutex
}

func NewCached[T any](source repository.Source[T], store cache.Store) *Cached[T] {
	return &Cached[T]{source: source, store: store}
}

// Identity returns the identity of the underlying source
func (c *Cached[T]) Identity() string {
	return c.source.Identity()
}

// Get returns the current dataset, loading it from the source on a cache miss
func (c *Cached[T]) Get(ctx context.Context) ([]T, error) {
	key, err := c.key(ctx)
	if err != nil {
		return nil, err
	}

	if data, ok := c.lookup(ctx, key); ok {
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another request may have loaded it while we waited
	if data, ok := c.lookup(ctx, key); ok {
		return data, nil
	}

	data, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	// drop entries for older fingerprints before storing the new one
	if err := c.store.DeletePrefix(ctx, c.prefix()); err != nil {
		nuts.L.Warnf("[Dataset] Failed to drop stale entries for %s: %v", c.source.Identity(), err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		nuts.L.Warnf("[Dataset] Failed to cache %s: %v", key, err)
	}
	return data, nil
}

// Invalidate drops every cached version of the dataset
func (c *Cached[T]) Invalidate(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, c.prefix())
}

func (c *Cached[T]) key(ctx context.Context) (string, error) {
	fp, err := c.source.Fingerprint(ctx)
	if err != nil {
		return "", err
	}
	return c.prefix() + fp, nil
}

func (c *Cached[T]) prefix() string {
	return c.source.Identity() + ":"
}

func (c *Cached[T]) lookup(ctx context.Context, key string) ([]T, bool) {
	var data []T
	err := c.store.Get(ctx, key, &data)
	if err == nil {
		return data, true
	}
	if !stderrors.Is(err, cache.ErrMiss) {
		nuts.L.Warnf("[Dataset] Cache read failed for %s, reloading: %v", key, err)
	}
	return nil, false
}
