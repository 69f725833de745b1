package domain

import "context"

// Cache keys are a stable contract between the refresh and detection paths
// and must not change between releases.
const (
	TokensCacheKey         = "TokensCacheKey"
	LiquidityPoolsCacheKey = "LiquidityPoolsCacheKey"
)

// SnapshotCache holds the two snapshot lists the pipeline shares: the token
// catalog projection and the latest liquidity pools. Both are written as a
// whole (replace, not merge) with a per-write TTL; a read after expiry
// reports absence via ErrNotFound.
type SnapshotCache interface {
	SetTokens(ctx context.Context, tokens []TokenSnapshot) error
	GetTokens(ctx context.Context) ([]TokenSnapshot, error)
	SetLiquidityPools(ctx context.Context, pools []LiquidityPool) error
	GetLiquidityPools(ctx context.Context) ([]LiquidityPool, error)
}
