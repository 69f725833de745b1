package app

import (
	"context"
	"fmt"

	"arbwatch/internal/pipeline"
)

// WatchMode runs the full scheduled pipeline: catalog refresh, liquidity
// refresh, detection + notification, and (when configured) cold-storage
// archival. It blocks until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	orch := pipeline.NewOrchestrator(
		deps.Catalog,
		deps.Liquidity,
		deps.Dispatcher,
		deps.Archiver,
		a.cfg.Pipeline.CatalogInterval.Duration,
		a.cfg.Pipeline.LiquidityInterval.Duration,
		a.cfg.Pipeline.DetectInterval.Duration,
		a.cfg.Pipeline.ArchiveCron,
		a.logger,
	)
	return orch.Run(ctx)
}

// OnceMode runs a single sequential pass (catalog, liquidity, detection)
// and exits. Useful for cron-driven deployments and smoke testing.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting one-shot mode")

	orch := pipeline.NewOrchestrator(
		deps.Catalog,
		deps.Liquidity,
		deps.Dispatcher,
		nil,
		a.cfg.Pipeline.CatalogInterval.Duration,
		a.cfg.Pipeline.LiquidityInterval.Duration,
		a.cfg.Pipeline.DetectInterval.Duration,
		a.cfg.Pipeline.ArchiveCron,
		a.logger,
	)
	if err := orch.RunOnce(ctx); err != nil {
		return fmt.Errorf("app: one-shot pass: %w", err)
	}
	a.logger.InfoContext(ctx, "one-shot pass complete")
	return nil
}

// ArchiveMode runs a single archive pass and exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return fmt.Errorf("app: archive mode requires s3 configuration")
	}
	if err := deps.Archiver.Run(ctx); err != nil {
		return fmt.Errorf("app: archive pass: %w", err)
	}
	return nil
}
