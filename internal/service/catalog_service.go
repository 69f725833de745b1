// Package service contains the application services that orchestrate the
// stores, caches, and the market-data provider.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"arbwatch/internal/domain"
)

// TokenFetcher retrieves token candidates from the market-data provider.
type TokenFetcher interface {
	FetchTokens(ctx context.Context, limit int, slug string) ([]domain.Token, error)
}

// CatalogService reconciles fetched token candidates against the persisted
// catalog and republishes the canonical snapshot set into the cache.
type CatalogService struct {
	fetcher TokenFetcher
	tokens  domain.TokenStore
	cache   domain.SnapshotCache
	limit   int
	slug    string
	logger  *slog.Logger
}

// NewCatalogService creates a CatalogService. limit and slug follow the
// provider-selection rules of TokenFetcher.FetchTokens.
func NewCatalogService(
	fetcher TokenFetcher,
	tokens domain.TokenStore,
	cache domain.SnapshotCache,
	limit int,
	slug string,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		fetcher: fetcher,
		tokens:  tokens,
		cache:   cache,
		limit:   limit,
		slug:    slug,
		logger:  logger.With(slog.String("component", "catalog_service")),
	}
}

// RefreshTokens fetches candidates from the provider, upserts them by slug in
// one transaction, then reloads the full catalog, deduplicates it by slug
// (first occurrence wins) and replaces the cached snapshot list.
//
// A provider failure is soft: it is logged and the catalog and cache are left
// untouched. A successful fetch with zero candidates skips the upsert but
// still republishes the persisted catalog, refreshing the snapshot TTL.
// Persistence failures abort the refresh and are returned to the caller.
func (s *CatalogService) RefreshTokens(ctx context.Context) error {
	candidates, err := s.fetcher.FetchTokens(ctx, s.limit, s.slug)
	if err != nil {
		s.logger.WarnContext(ctx, "token fetch failed, skipping refresh",
			slog.String("error", err.Error()),
		)
		return nil
	}

	if len(candidates) == 0 {
		s.logger.WarnContext(ctx, "provider returned no token candidates, republishing existing catalog")
	} else {
		existing, err := s.tokens.List(ctx)
		if err != nil {
			return fmt.Errorf("catalog_service: load tokens: %w", err)
		}

		// Candidates were selected case-insensitively at fetch time, but the
		// upsert match against the persisted slug is exact. Kept as observed.
		bySlug := make(map[string]domain.Token, len(existing))
		for _, t := range existing {
			if _, seen := bySlug[t.Slug]; !seen {
				bySlug[t.Slug] = t
			}
		}

		var updates, inserts []domain.Token
		for _, candidate := range candidates {
			if current, ok := bySlug[candidate.Slug]; ok {
				current.Name = candidate.Name
				current.Ticker = candidate.Ticker
				updates = append(updates, current)
			} else {
				inserts = append(inserts, candidate)
			}
		}

		if err := s.tokens.SaveAll(ctx, updates, inserts); err != nil {
			return fmt.Errorf("catalog_service: save tokens: %w", err)
		}
		s.logger.InfoContext(ctx, "tokens updated in the database",
			slog.Int("updated", len(updates)),
			slog.Int("inserted", len(inserts)),
		)
	}

	all, err := s.tokens.List(ctx)
	if err != nil {
		return fmt.Errorf("catalog_service: reload tokens: %w", err)
	}

	// Defensive dedup by slug: keep the first occurrence per slug in case
	// duplicate rows pre-date this service.
	seen := make(map[string]bool, len(all))
	snapshots := make([]domain.TokenSnapshot, 0, len(all))
	for _, t := range all {
		if seen[t.Slug] {
			continue
		}
		seen[t.Slug] = true
		snapshots = append(snapshots, t.Snapshot())
	}

	if err := s.cache.SetTokens(ctx, snapshots); err != nil {
		return fmt.Errorf("catalog_service: cache tokens: %w", err)
	}
	s.logger.InfoContext(ctx, "token snapshots cached",
		slog.Int("count", len(snapshots)),
	)
	return nil
}
