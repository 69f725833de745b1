// Package memory implements the snapshot cache on top of an in-process
// key/value store with per-entry time-to-live.
package memory

import (
	"context"
	"sync"
	"time"

	"arbwatch/internal/domain"
)

// DefaultTTL is applied when Set is called with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// entry is a stored value with its absolute expiry timestamp.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-process store with lazy TTL expiry. Entries
// are evicted when a read observes them expired; there is no background
// sweeper and no size bound — this is a freshness cache, not a capacity-
// bounded one.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	// now is swapped out in tests for deterministic expiry.
	now func() time.Time
}

// New creates a Cache with the given default TTL. A non-positive defaultTTL
// falls back to DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Set stores value under key with expiry now + ttl. A non-positive ttl uses
// the cache's default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Get returns the stored value and true, or nil and false when the key is
// absent or expired. An expired entry is deleted on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) || c.now().Equal(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Remove deletes the entry for key, if any.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Exists reports whether key holds an unexpired value. It shares Get's expiry
// semantics, including lazy eviction.
func (c *Cache) Exists(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Get retrieves a typed value from the cache. It returns the zero value and
// false when the key is absent, expired, or holds a value of another type.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// SnapshotCache implements domain.SnapshotCache on a Cache, using the fixed
// pipeline cache keys with per-list TTLs.
type SnapshotCache struct {
	cache    *Cache
	tokenTTL time.Duration
	poolTTL  time.Duration
}

// NewSnapshotCache creates a SnapshotCache. tokenTTL and poolTTL bound the
// freshness of the token catalog and liquidity-pool lists respectively; the
// pool TTL is deliberately the shorter of the two.
func NewSnapshotCache(c *Cache, tokenTTL, poolTTL time.Duration) *SnapshotCache {
	return &SnapshotCache{cache: c, tokenTTL: tokenTTL, poolTTL: poolTTL}
}

// SetTokens replaces the cached token snapshot list.
func (s *SnapshotCache) SetTokens(_ context.Context, tokens []domain.TokenSnapshot) error {
	s.cache.Set(domain.TokensCacheKey, tokens, s.tokenTTL)
	return nil
}

// GetTokens returns the cached token snapshot list, or domain.ErrNotFound
// when it is absent or expired.
func (s *SnapshotCache) GetTokens(_ context.Context) ([]domain.TokenSnapshot, error) {
	tokens, ok := Get[[]domain.TokenSnapshot](s.cache, domain.TokensCacheKey)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tokens, nil
}

// SetLiquidityPools replaces the cached liquidity-pool list.
func (s *SnapshotCache) SetLiquidityPools(_ context.Context, pools []domain.LiquidityPool) error {
	s.cache.Set(domain.LiquidityPoolsCacheKey, pools, s.poolTTL)
	return nil
}

// GetLiquidityPools returns the cached liquidity-pool list, or
// domain.ErrNotFound when it is absent or expired.
func (s *SnapshotCache) GetLiquidityPools(_ context.Context) ([]domain.LiquidityPool, error) {
	pools, ok := Get[[]domain.LiquidityPool](s.cache, domain.LiquidityPoolsCacheKey)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pools, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
