package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arbwatch/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using JSON-serialized lists
// stored as plain Redis string values with native TTLs.
//
// Key schema:
//
//	arb:snapshot:TokensCacheKey
//	arb:snapshot:LiquidityPoolsCacheKey
type SnapshotCache struct {
	rdb      *redis.Client
	tokenTTL time.Duration
	poolTTL  time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client, tokenTTL, poolTTL time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), tokenTTL: tokenTTL, poolTTL: poolTTL}
}

func snapshotKey(cacheKey string) string { return "arb:snapshot:" + cacheKey }

// SetTokens replaces the cached token snapshot list.
func (sc *SnapshotCache) SetTokens(ctx context.Context, tokens []domain.TokenSnapshot) error {
	return sc.setList(ctx, domain.TokensCacheKey, tokens, sc.tokenTTL)
}

// GetTokens returns the cached token snapshot list, or domain.ErrNotFound
// when the key is absent (expired keys are removed by Redis itself).
func (sc *SnapshotCache) GetTokens(ctx context.Context) ([]domain.TokenSnapshot, error) {
	var tokens []domain.TokenSnapshot
	if err := sc.getList(ctx, domain.TokensCacheKey, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// SetLiquidityPools replaces the cached liquidity-pool list.
func (sc *SnapshotCache) SetLiquidityPools(ctx context.Context, pools []domain.LiquidityPool) error {
	return sc.setList(ctx, domain.LiquidityPoolsCacheKey, pools, sc.poolTTL)
}

// GetLiquidityPools returns the cached liquidity-pool list, or
// domain.ErrNotFound when the key is absent.
func (sc *SnapshotCache) GetLiquidityPools(ctx context.Context) ([]domain.LiquidityPool, error) {
	var pools []domain.LiquidityPool
	if err := sc.getList(ctx, domain.LiquidityPoolsCacheKey, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (sc *SnapshotCache) setList(ctx context.Context, cacheKey string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", cacheKey, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(cacheKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", cacheKey, err)
	}
	return nil
}

func (sc *SnapshotCache) getList(ctx context.Context, cacheKey string, dst any) error {
	data, err := sc.rdb.Get(ctx, snapshotKey(cacheKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("redis: get %s: %w", cacheKey, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("redis: unmarshal %s: %w", cacheKey, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
