package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"arbwatch/internal/domain"
)

// TickerFetcher retrieves per-token exchange tickers from the market-data
// provider.
type TickerFetcher interface {
	FetchTickersForToken(ctx context.Context, token domain.TokenSnapshot) ([]domain.LiquidityPool, error)
}

// LiquidityService refreshes the cached liquidity-pool snapshot from the
// provider's per-token ticker feeds.
type LiquidityService struct {
	fetcher TickerFetcher
	cache   domain.SnapshotCache
	logger  *slog.Logger
}

// NewLiquidityService creates a LiquidityService.
func NewLiquidityService(fetcher TickerFetcher, cache domain.SnapshotCache, logger *slog.Logger) *LiquidityService {
	return &LiquidityService{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger.With(slog.String("component", "liquidity_service")),
	}
}

// RefreshLiquidityPools fetches tickers for every cached token snapshot and
// replaces the cached liquidity-pool list with the accumulated result. It
// requires the token catalog to have been cached at least once; otherwise it
// logs and does nothing.
//
// One token's fetch failure skips that token only. Cancellation mid-batch
// drops the remaining tokens and caches what was already obtained.
func (s *LiquidityService) RefreshLiquidityPools(ctx context.Context) error {
	tokens, err := s.cache.GetTokens(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "no tokens found in cache, skipping liquidity refresh")
			return nil
		}
		return fmt.Errorf("liquidity_service: read token cache: %w", err)
	}
	if len(tokens) == 0 {
		s.logger.WarnContext(ctx, "token cache is empty, skipping liquidity refresh")
		return nil
	}

	var pools []domain.LiquidityPool
	for _, token := range tokens {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "liquidity refresh cancelled mid-batch",
				slog.Int("fetched", len(pools)),
			)
			break
		}

		tokenPools, err := s.fetcher.FetchTickersForToken(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "ticker fetch failed, skipping token",
				slog.String("slug", token.Slug),
				slog.String("ticker", token.Ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		pools = append(pools, tokenPools...)
	}

	if err := s.cache.SetLiquidityPools(ctx, pools); err != nil {
		return fmt.Errorf("liquidity_service: cache pools: %w", err)
	}
	s.logger.InfoContext(ctx, "liquidity pools cached",
		slog.Int("tokens", len(tokens)),
		slog.Int("pools", len(pools)),
	)
	return nil
}
