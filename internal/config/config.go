// Package config defines the top-level configuration for arbwatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBWATCH_* environment variables.
type Config struct {
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	Database  DatabaseConfig  `toml:"database"`
	Cache     CacheConfig     `toml:"cache"`
	Email     EmailConfig     `toml:"email"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	S3        S3Config        `toml:"s3"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// CoinGeckoConfig holds market-data provider parameters.
type CoinGeckoConfig struct {
	// BaseURL is the coins API root, e.g. "https://api.coingecko.com/api/v3/coins".
	BaseURL string `toml:"base_url"`
	// FetchLimit caps how many tokens a catalog refresh takes from the
	// provider list when no slug is pinned.
	FetchLimit int `toml:"fetch_limit"`
	// Slug, when set, pins the catalog refresh to a single token.
	Slug string `toml:"slug"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// CacheConfig selects and tunes the snapshot cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend    string      `toml:"backend"`
	TokenTTL   duration    `toml:"token_ttl"`
	PoolTTL    duration    `toml:"pool_ttl"`
	DefaultTTL duration    `toml:"default_ttl"`
	Redis      RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis connection parameters for the redis cache backend.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// EmailConfig holds SMTP delivery parameters.
type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	AppName  string `toml:"app_name"`
	From     string `toml:"from"`
	Password string `toml:"password"`
	SmtpHost string `toml:"smtp_host"`
	SmtpPort int    `toml:"smtp_port"`
}

// PipelineConfig holds refresh and dispatch scheduling parameters.
type PipelineConfig struct {
	CatalogInterval      duration `toml:"catalog_interval"`
	LiquidityInterval    duration `toml:"liquidity_interval"`
	DetectInterval       duration `toml:"detect_interval"`
	ArchiveEnabled       bool     `toml:"archive_enabled"`
	ArchiveCron          string   `toml:"archive_cron"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
}

// S3Config holds S3-compatible object storage parameters for the notification
// archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30m", "24h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		CoinGecko: CoinGeckoConfig{
			BaseURL:    "https://api.coingecko.com/api/v3/coins",
			FetchLimit: 5,
			Slug:       "",
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbwatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TokenTTL:   duration{24 * time.Hour},
			PoolTTL:    duration{30 * time.Minute},
			DefaultTTL: duration{5 * time.Minute},
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				DB:         0,
				PoolSize:   20,
				MaxRetries: 3,
			},
		},
		Email: EmailConfig{
			Enabled:  false,
			AppName:  "ArbWatch",
			SmtpPort: 587,
		},
		Pipeline: PipelineConfig{
			CatalogInterval:      duration{24 * time.Hour},
			LiquidityInterval:    duration{30 * time.Minute},
			DetectInterval:       duration{30 * time.Minute},
			ArchiveEnabled:       false,
			ArchiveCron:          "0 3 * * *",
			ArchiveRetentionDays: 90,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbwatch-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch":   true,
	"once":    true,
	"archive": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, once, archive)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, "coingecko: base_url must not be empty")
	}
	if c.CoinGecko.FetchLimit <= 0 {
		errs = append(errs, fmt.Sprintf("coingecko: fetch_limit must be > 0, got %d", c.CoinGecko.FetchLimit))
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, "cache: redis.addr must not be empty for the redis backend")
		}
		if c.Cache.Redis.PoolSize < 1 {
			errs = append(errs, "cache: redis.pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.TokenTTL.Duration <= 0 {
		errs = append(errs, "cache: token_ttl must be positive")
	}
	if c.Cache.PoolTTL.Duration <= 0 {
		errs = append(errs, "cache: pool_ttl must be positive")
	}

	if c.Email.Enabled {
		if c.Email.From == "" {
			errs = append(errs, "email: from must be set when email is enabled")
		}
		if c.Email.SmtpHost == "" {
			errs = append(errs, "email: smtp_host must be set when email is enabled")
		}
		if c.Email.SmtpPort <= 0 || c.Email.SmtpPort > 65535 {
			errs = append(errs, fmt.Sprintf("email: smtp_port must be 1-65535, got %d", c.Email.SmtpPort))
		}
	}

	if c.Pipeline.CatalogInterval.Duration <= 0 {
		errs = append(errs, "pipeline: catalog_interval must be positive")
	}
	if c.Pipeline.LiquidityInterval.Duration <= 0 {
		errs = append(errs, "pipeline: liquidity_interval must be positive")
	}
	if c.Pipeline.DetectInterval.Duration <= 0 {
		errs = append(errs, "pipeline: detect_interval must be positive")
	}
	if c.Pipeline.ArchiveEnabled || strings.ToLower(c.Mode) == "archive" {
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
