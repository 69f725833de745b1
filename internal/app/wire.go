package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "arbwatch/internal/blob/s3"
	"arbwatch/internal/cache/memory"
	"arbwatch/internal/cache/redis"
	"arbwatch/internal/config"
	"arbwatch/internal/dispatch"
	"arbwatch/internal/domain"
	"arbwatch/internal/notify"
	"arbwatch/internal/pipeline"
	"arbwatch/internal/platform/coingecko"
	"arbwatch/internal/service"
	"arbwatch/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	TokenStore        domain.TokenStore
	UserStore         domain.UserStore
	NotificationStore domain.NotificationStore

	// Cache
	SnapshotCache domain.SnapshotCache

	// Services
	Catalog   *service.CatalogService
	Liquidity *service.LiquidityService
	Users     *service.UserService

	// Dispatch
	Dispatcher *dispatch.Dispatcher

	// Archival, nil unless archiving is configured.
	Archiver *pipeline.Archiver
}

// needsS3 returns true when the configuration requires object storage.
func needsS3(cfg *config.Config) bool {
	return cfg.Pipeline.ArchiveEnabled || strings.ToLower(cfg.Mode) == "archive"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.TokenStore = postgres.NewTokenStore(pool)
	deps.UserStore = postgres.NewUserStore(pool)
	deps.NotificationStore = postgres.NewNotificationStore(pool)

	// --- Snapshot cache ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Cache.Redis.Addr,
			Password:   cfg.Cache.Redis.Password,
			DB:         cfg.Cache.Redis.DB,
			PoolSize:   cfg.Cache.Redis.PoolSize,
			MaxRetries: cfg.Cache.Redis.MaxRetries,
			TLSEnabled: cfg.Cache.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.SnapshotCache = redis.NewSnapshotCache(
			redisClient,
			cfg.Cache.TokenTTL.Duration,
			cfg.Cache.PoolTTL.Duration,
		)
	default:
		store := memory.New(cfg.Cache.DefaultTTL.Duration)
		deps.SnapshotCache = memory.NewSnapshotCache(
			store,
			cfg.Cache.TokenTTL.Duration,
			cfg.Cache.PoolTTL.Duration,
		)
	}

	// --- Market data provider + services ---
	gecko := coingecko.New(cfg.CoinGecko.BaseURL)
	deps.Catalog = service.NewCatalogService(
		gecko,
		deps.TokenStore,
		deps.SnapshotCache,
		cfg.CoinGecko.FetchLimit,
		cfg.CoinGecko.Slug,
		logger,
	)
	deps.Liquidity = service.NewLiquidityService(gecko, deps.SnapshotCache, logger)
	deps.Users = service.NewUserService(deps.UserStore, deps.NotificationStore, logger)

	// --- Dispatch ---
	var mailer notify.Mailer
	if cfg.Email.Enabled {
		mailer = notify.NewSMTPSender(notify.SMTPConfig{
			AppName:  cfg.Email.AppName,
			From:     cfg.Email.From,
			Password: cfg.Email.Password,
			Host:     cfg.Email.SmtpHost,
			Port:     cfg.Email.SmtpPort,
		})
	} else {
		logger.Info("email delivery disabled, notifications will only be persisted")
	}
	deps.Dispatcher = dispatch.New(
		deps.SnapshotCache,
		deps.UserStore,
		deps.NotificationStore,
		mailer,
		logger,
	)

	// --- S3 cold storage ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = pipeline.NewArchiver(
			deps.NotificationStore,
			s3blob.NewWriter(s3Client),
			cfg.Pipeline.ArchiveRetentionDays,
			logger,
		)
	}

	return deps, cleanup, nil
}
