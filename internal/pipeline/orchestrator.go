package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// TokenRefresher refreshes the token catalog and its cached snapshot.
type TokenRefresher interface {
	RefreshTokens(ctx context.Context) error
}

// PoolRefresher refreshes the cached liquidity pool snapshot.
type PoolRefresher interface {
	RefreshLiquidityPools(ctx context.Context) error
}

// Notifier runs detection over the cached pools and fans out notifications.
type Notifier interface {
	ProcessAndNotify(ctx context.Context) error
}

// Orchestrator manages the scheduled goroutines: catalog refresh,
// liquidity refresh, detection + notification, and cold-storage archival.
type Orchestrator struct {
	catalog   TokenRefresher
	liquidity PoolRefresher
	notifier  Notifier
	archiver  *Archiver

	catalogInterval   time.Duration
	liquidityInterval time.Duration
	detectInterval    time.Duration
	archiveCron       string

	logger *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. archiver may be nil, in which
// case the archival loop is not started.
func NewOrchestrator(
	catalog TokenRefresher,
	liquidity PoolRefresher,
	notifier Notifier,
	archiver *Archiver,
	catalogInterval, liquidityInterval, detectInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:           catalog,
		liquidity:         liquidity,
		notifier:          notifier,
		archiver:          archiver,
		catalogInterval:   catalogInterval,
		liquidityInterval: liquidityInterval,
		detectInterval:    detectInterval,
		archiveCron:       archiveCron,
		logger:            logger.With(slog.String("component", "orchestrator")),
	}
}

// RunOnce executes a single sequential pass: refresh the token catalog,
// refresh the liquidity pools, then run detection and notification. It is
// the unit of work behind the one-shot mode and the watch-mode bootstrap.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	if err := o.catalog.RefreshTokens(ctx); err != nil {
		return fmt.Errorf("catalog refresh: %w", err)
	}
	if err := o.liquidity.RefreshLiquidityPools(ctx); err != nil {
		return fmt.Errorf("liquidity refresh: %w", err)
	}
	if err := o.notifier.ProcessAndNotify(ctx); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}

// Run starts all scheduled loops as concurrent goroutines using an errgroup.
// A full sequential pass runs first so the loops start against warm caches.
// Persistence errors inside a loop are logged and the loop keeps its
// schedule; only context cancellation stops the orchestrator.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator starting",
		slog.Duration("catalog_interval", o.catalogInterval),
		slog.Duration("liquidity_interval", o.liquidityInterval),
		slog.Duration("detect_interval", o.detectInterval),
	)

	if err := o.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Error("initial pass failed", slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.logger.Info("starting catalog refresh loop")
		err := o.runLoop(ctx, o.catalogInterval, "catalog refresh", o.catalog.RefreshTokens)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("catalog loop: %w", err)
	})

	g.Go(func() error {
		o.logger.Info("starting liquidity refresh loop")
		err := o.runLoop(ctx, o.liquidityInterval, "liquidity refresh", o.liquidity.RefreshLiquidityPools)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("liquidity loop: %w", err)
	})

	g.Go(func() error {
		o.logger.Info("starting detection loop")
		err := o.runLoop(ctx, o.detectInterval, "detection", o.notifier.ProcessAndNotify)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("detection loop: %w", err)
	})

	if o.archiver != nil {
		g.Go(func() error {
			o.logger.Info("starting archiver cron")
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// runLoop invokes fn on every tick until the context is cancelled. Errors
// from fn do not stop the loop.
func (o *Orchestrator) runLoop(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("loop stopped", slog.String("loop", name))
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				o.logger.Error("scheduled run failed",
					slog.String("loop", name),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
