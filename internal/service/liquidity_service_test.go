package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbwatch/internal/domain"
)

// fakeTickerFetcher returns canned pools per slug, or an error for slugs in
// failFor.
type fakeTickerFetcher struct {
	pools   map[string][]domain.LiquidityPool
	failFor map[string]bool
}

func (f *fakeTickerFetcher) FetchTickersForToken(_ context.Context, token domain.TokenSnapshot) ([]domain.LiquidityPool, error) {
	if f.failFor[token.Slug] {
		return nil, errors.New("provider error")
	}
	return f.pools[token.Slug], nil
}

func TestRefreshLiquidityPoolsCachesAllTokens(t *testing.T) {
	cache := &fakeSnapshotCache{}
	require.NoError(t, cache.SetTokens(context.Background(), []domain.TokenSnapshot{
		{ID: 1, Ticker: "btc", Slug: "bitcoin"},
		{ID: 2, Ticker: "eth", Slug: "ethereum"},
	}))

	fetcher := &fakeTickerFetcher{pools: map[string][]domain.LiquidityPool{
		"bitcoin":  {{TokenTicker: "btc", ExchangeName: "Binance", BuyPrice: 100}},
		"ethereum": {{TokenTicker: "eth", ExchangeName: "Kraken", BuyPrice: 10}},
	}}

	svc := NewLiquidityService(fetcher, cache, discardLogger())
	require.NoError(t, svc.RefreshLiquidityPools(context.Background()))

	require.True(t, cache.hasPools)
	require.Len(t, cache.pools, 2)
}

func TestRefreshLiquidityPoolsNoTokenSnapshotIsNoOp(t *testing.T) {
	cache := &fakeSnapshotCache{}
	fetcher := &fakeTickerFetcher{}
	svc := NewLiquidityService(fetcher, cache, discardLogger())

	require.NoError(t, svc.RefreshLiquidityPools(context.Background()))
	assert.False(t, cache.hasPools, "pool cache must stay untouched without a token snapshot")
}

func TestRefreshLiquidityPoolsSkipsFailingToken(t *testing.T) {
	cache := &fakeSnapshotCache{}
	require.NoError(t, cache.SetTokens(context.Background(), []domain.TokenSnapshot{
		{ID: 1, Ticker: "btc", Slug: "bitcoin"},
		{ID: 2, Ticker: "eth", Slug: "ethereum"},
	}))

	fetcher := &fakeTickerFetcher{
		pools: map[string][]domain.LiquidityPool{
			"ethereum": {{TokenTicker: "eth", ExchangeName: "Kraken", BuyPrice: 10}},
		},
		failFor: map[string]bool{"bitcoin": true},
	}

	svc := NewLiquidityService(fetcher, cache, discardLogger())
	require.NoError(t, svc.RefreshLiquidityPools(context.Background()))

	require.True(t, cache.hasPools)
	require.Len(t, cache.pools, 1)
	assert.Equal(t, "eth", cache.pools[0].TokenTicker)
}

func TestRefreshLiquidityPoolsReplacesSnapshot(t *testing.T) {
	cache := &fakeSnapshotCache{}
	require.NoError(t, cache.SetTokens(context.Background(), []domain.TokenSnapshot{
		{ID: 1, Ticker: "btc", Slug: "bitcoin"},
	}))
	require.NoError(t, cache.SetLiquidityPools(context.Background(), []domain.LiquidityPool{
		{TokenTicker: "btc", ExchangeName: "Stale", BuyPrice: 1},
	}))

	fetcher := &fakeTickerFetcher{pools: map[string][]domain.LiquidityPool{
		"bitcoin": {{TokenTicker: "btc", ExchangeName: "Binance", BuyPrice: 100}},
	}}

	svc := NewLiquidityService(fetcher, cache, discardLogger())
	require.NoError(t, svc.RefreshLiquidityPools(context.Background()))

	require.Len(t, cache.pools, 1)
	assert.Equal(t, "Binance", cache.pools[0].ExchangeName, "refresh must replace, not append")
}

func TestRefreshLiquidityPoolsCancelledContext(t *testing.T) {
	cache := &fakeSnapshotCache{}
	require.NoError(t, cache.SetTokens(context.Background(), []domain.TokenSnapshot{
		{ID: 1, Ticker: "btc", Slug: "bitcoin"},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeTickerFetcher{pools: map[string][]domain.LiquidityPool{
		"bitcoin": {{TokenTicker: "btc", ExchangeName: "Binance", BuyPrice: 100}},
	}}

	svc := NewLiquidityService(fetcher, cache, discardLogger())
	require.NoError(t, svc.RefreshLiquidityPools(ctx))

	// The batch is abandoned before any fetch; the empty result still
	// replaces the snapshot.
	require.True(t, cache.hasPools)
	assert.Empty(t, cache.pools)
}
