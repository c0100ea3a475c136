package service

import (
	"context"

	"github.com/maxkh/rental-marketplace/internal/cache"
)

// Invalidator is the cache invalidation policy consumed by the
// booking and review services. Implementations must be safe to call
// after a commit and must never fail the calling operation: the write
// is already durable, so a failed invalidation only widens the
// staleness window.
type Invalidator interface {
	// BookingsChanged drops every cached view derived from the
	// booking set: search results and the popular cities ranking.
	// Both are global aggregates, so invalidation is whole-scope
	// rather than per key.
	BookingsChanged(ctx context.Context)
	// ListingChanged drops the cached detail view of one listing,
	// used after its review set (and hence average rating) changes.
	ListingChanged(ctx context.Context, listingID uint64)
}

// CacheCoordinator implements Invalidator over the Redis-backed
// store. A nil store disables invalidation along with caching itself.
type CacheCoordinator struct {
	store *cache.Store
}

// NewCacheCoordinator returns a coordinator over the given store.
func NewCacheCoordinator(store *cache.Store) *CacheCoordinator {
	return &CacheCoordinator{store: store}
}

func (c *CacheCoordinator) BookingsChanged(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.store.InvalidateScope(ctx, cache.ScopeSearch)
	c.store.InvalidateScope(ctx, cache.ScopePopular)
}

func (c *CacheCoordinator) ListingChanged(ctx context.Context, listingID uint64) {
	if c.store == nil {
		return
	}
	c.store.InvalidateListing(ctx, listingID)
}
