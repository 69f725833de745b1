package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── CoinGecko ──
	setStr(&cfg.CoinGecko.BaseURL, "ARBWATCH_COINGECKO_BASE_URL")
	setInt(&cfg.CoinGecko.FetchLimit, "ARBWATCH_COINGECKO_FETCH_LIMIT")
	setStr(&cfg.CoinGecko.Slug, "ARBWATCH_COINGECKO_SLUG")

	// ── Database ──
	setStr(&cfg.Database.DSN, "ARBWATCH_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ARBWATCH_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ARBWATCH_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ARBWATCH_DATABASE_NAME")
	setStr(&cfg.Database.User, "ARBWATCH_DATABASE_USER")
	setStr(&cfg.Database.Password, "ARBWATCH_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ARBWATCH_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "ARBWATCH_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ARBWATCH_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ARBWATCH_DATABASE_RUN_MIGRATIONS")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "ARBWATCH_CACHE_BACKEND")
	setDuration(&cfg.Cache.TokenTTL, "ARBWATCH_CACHE_TOKEN_TTL")
	setDuration(&cfg.Cache.PoolTTL, "ARBWATCH_CACHE_POOL_TTL")
	setDuration(&cfg.Cache.DefaultTTL, "ARBWATCH_CACHE_DEFAULT_TTL")
	setStr(&cfg.Cache.Redis.Addr, "ARBWATCH_REDIS_ADDR")
	setStr(&cfg.Cache.Redis.Password, "ARBWATCH_REDIS_PASSWORD")
	setInt(&cfg.Cache.Redis.DB, "ARBWATCH_REDIS_DB")
	setInt(&cfg.Cache.Redis.PoolSize, "ARBWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Cache.Redis.MaxRetries, "ARBWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Cache.Redis.TLSEnabled, "ARBWATCH_REDIS_TLS_ENABLED")

	// ── Email ──
	setBool(&cfg.Email.Enabled, "ARBWATCH_EMAIL_ENABLED")
	setStr(&cfg.Email.AppName, "ARBWATCH_EMAIL_APP_NAME")
	setStr(&cfg.Email.From, "ARBWATCH_EMAIL_FROM")
	setStr(&cfg.Email.Password, "ARBWATCH_EMAIL_PASSWORD")
	setStr(&cfg.Email.SmtpHost, "ARBWATCH_EMAIL_SMTP_HOST")
	setInt(&cfg.Email.SmtpPort, "ARBWATCH_EMAIL_SMTP_PORT")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.CatalogInterval, "ARBWATCH_PIPELINE_CATALOG_INTERVAL")
	setDuration(&cfg.Pipeline.LiquidityInterval, "ARBWATCH_PIPELINE_LIQUIDITY_INTERVAL")
	setDuration(&cfg.Pipeline.DetectInterval, "ARBWATCH_PIPELINE_DETECT_INTERVAL")
	setBool(&cfg.Pipeline.ArchiveEnabled, "ARBWATCH_PIPELINE_ARCHIVE_ENABLED")
	setStr(&cfg.Pipeline.ArchiveCron, "ARBWATCH_PIPELINE_ARCHIVE_CRON")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "ARBWATCH_PIPELINE_ARCHIVE_RETENTION_DAYS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBWATCH_S3_FORCE_PATH_STYLE")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBWATCH_MODE")
	setStr(&cfg.LogLevel, "ARBWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
