// Package cache implements the read-through cache for derived listing
// views: search results, the popular cities ranking and listing
// detail pages. Values are JSON blobs stored in Redis. A miss runs
// the underlying query and repopulates the entry before returning.
// Invalidation is coarse: any booking creation or cancellation drops
// the whole search and popularity scopes, because both views are
// derived from the full booking/listing set. Listing details are
// invalidated per id. Entries also carry a TTL as a safety net, but
// correctness never depends on it; the staleness window is bounded by
// the next invalidating mutation.
package cache

import (
	"context"
	"crypto/sha1"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scope prefixes for the cached views. Keys are "<prefix>:<scope>:...".
const (
	ScopeSearch  = "listing-search"
	ScopePopular = "popular-cities"
	ScopeListing = "listing-detail"
)

// Store wraps a Redis client with namespaced get-or-compute and
// scope-wide invalidation. A nil client disables caching entirely:
// GetOrCompute falls through to the compute function and
// invalidation becomes a no-op, so the rest of the application never
// has to check whether Redis is up.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a Store using the given client. prefix namespaces all
// keys (usually the application name); ttl bounds entry lifetime as a
// safety net on top of explicit invalidation.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "rental"
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// SearchKey derives the cache key for a search filter tuple. The
// parts must list every filter field so that distinct tuples never
// collide; the tail is hashed to keep keys short.
func (s *Store) SearchKey(parts ...string) string {
	return s.key(ScopeSearch, parts...)
}

// PopularKey derives the cache key for a popular cities request of
// the given result size.
func (s *Store) PopularKey(limit int) string {
	return s.key(ScopePopular, fmt.Sprintf("%d", limit))
}

// ListingKey derives the cache key for a listing detail view.
func (s *Store) ListingKey(listingID uint64) string {
	return s.key(ScopeListing, fmt.Sprintf("%d", listingID))
}

func (s *Store) key(scope string, parts ...string) string {
	tail := strings.Join(parts, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%s:%x", s.prefix, scope, sum[:])
}

// GetOrCompute returns the cached value for key, or runs compute,
// stores its result and returns it. Redis failures on either side
// degrade to computing fresh data; they are logged, never surfaced.
func (s *Store) GetOrCompute(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, error) {
	if s.rdb != nil {
		if bs, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			return bs, nil
		} else if err != redis.Nil {
			log.Printf("cache: get %s failed: %v", key, err)
		}
	}
	bs, err := compute()
	if err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if err := s.rdb.SetEx(ctx, key, bs, s.ttl).Err(); err != nil {
			log.Printf("cache: set %s failed: %v", key, err)
		}
	}
	return bs, nil
}

// InvalidateScope removes every entry under the given scope prefix.
// It scans rather than relying on key bookkeeping so a crashed writer
// cannot leave entries orphaned. Errors are logged and swallowed: a
// failed invalidation degrades to serving stale data until the TTL or
// the next mutation, never to data loss.
func (s *Store) InvalidateScope(ctx context.Context, scope string) {
	if s.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, scope)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	keys := make([]string, 0, 32)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan %s failed: %v", pattern, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: del %d keys under %s failed: %v", len(keys), scope, err)
	}
}

// InvalidateListing removes the cached detail view of one listing.
func (s *Store) InvalidateListing(ctx context.Context, listingID uint64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.ListingKey(listingID)).Err(); err != nil {
		log.Printf("cache: del listing %d failed: %v", listingID, err)
	}
}
