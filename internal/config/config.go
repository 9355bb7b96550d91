// Package config defines the top-level configuration for the drifting-01
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by DRIFTING_* environment
// variables.
type Config struct {
	Drift    DriftConfig    `toml:"drift"`
	Mango    MangoConfig    `toml:"mango"`
	Engine   EngineConfig   `toml:"engine"`
	Hedge    HedgeConfig    `toml:"hedge"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DriftConfig holds drift venue gateway endpoints and credentials.
type DriftConfig struct {
	RestHost         string `toml:"rest_host"`
	WsHost           string `toml:"ws_host"`
	ApiKey           string `toml:"api_key"`
	ApiSecret        string `toml:"api_secret"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	SubAccount       string `toml:"sub_account"`
}

// MangoConfig holds mango venue endpoints and credentials.
type MangoConfig struct {
	RestHost   string `toml:"rest_host"`
	ApiKey     string `toml:"api_key"`
	ApiSecret  string `toml:"api_secret"`
	SubAccount string `toml:"sub_account"`
}

// EngineConfig holds the paired-arbitrage decision parameters.
type EngineConfig struct {
	// ArbAsset is the asset traded by the paired executor.
	ArbAsset string `toml:"arb_asset"`
	// Assets is the full asset universe covered by the hedger and telemetry.
	Assets []string `toml:"assets"`
	// SpreadThreshold is the percentage spread required to act.
	SpreadThreshold float64 `toml:"spread_threshold"`
	// PositionSizeUSD is the notional per paired trade, in quote currency.
	PositionSizeUSD float64 `toml:"position_size_usd"`
	// MaxPositionSize is the exposure cap per asset, in quote currency.
	MaxPositionSize float64 `toml:"max_position_size"`
	// PollInterval is the paired-executor cycle cadence.
	PollInterval duration `toml:"poll_interval"`
	// TelemetryInterval is the account-value gauge refresh cadence.
	TelemetryInterval duration `toml:"telemetry_interval"`
}

// HedgeConfig holds the resting-order hedger parameters.
type HedgeConfig struct {
	// PollInterval is the hedger cycle cadence.
	PollInterval duration `toml:"poll_interval"`
	// RetryDelay is the pause after a failed cycle before the next attempt.
	RetryDelay duration `toml:"retry_delay"`
	// DebounceTTL is how long a just-placed order suppresses duplicates for
	// the same market and side.
	DebounceTTL duration `toml:"debounce_ttl"`
	// MinChange maps asset symbol to the minimum absolute delta, in base
	// units, below which no hedge order is placed.
	MinChange map[string]float64 `toml:"min_change"`
}

// PostgresConfig holds PostgreSQL connection parameters for the decision
// journal.
type PostgresConfig struct {
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

// RedisConfig holds Redis connection parameters for the status mirror.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for journal
// archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls journal archival to cold storage.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// ServerConfig holds HTTP status API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "4s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "4s" or "500ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DriftMarket returns the drift market symbol for an asset, e.g. "SOL-PERP".
func DriftMarket(asset string) string {
	return strings.ToUpper(asset) + "-PERP"
}

// MangoMarket returns the mango market symbol for an asset, e.g. "SOL/USD".
func MangoMarket(asset string) string {
	return strings.ToUpper(asset) + "/USD"
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Drift: DriftConfig{
			RestHost: "https://gateway.drift.trade",
			WsHost:   "wss://gateway.drift.trade/ws",
		},
		Mango: MangoConfig{
			RestHost:   "https://api.mango.markets",
			SubAccount: "drifting-01",
		},
		Engine: EngineConfig{
			ArbAsset:          "SOL",
			Assets:            []string{"SOL", "ETH", "BTC"},
			SpreadThreshold:   0.44444,
			PositionSizeUSD:   100,
			MaxPositionSize:   3000,
			PollInterval:      duration{4 * time.Second},
			TelemetryInterval: duration{5 * time.Second},
		},
		Hedge: HedgeConfig{
			PollInterval: duration{1 * time.Second},
			RetryDelay:   duration{1 * time.Second},
			DebounceTTL:  duration{5 * time.Second},
			MinChange: map[string]float64{
				"SOL": 5,
				"ETH": 0.3,
				"BTC": 0.02,
			},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "drifting",
			User:          "drifting",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "drifting-journal",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"signal_fired", "partial_execution", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"arb":     true,
	"hedge":   true,
	"monitor": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: arb, hedge, monitor, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venue credentials — required for any mode that submits orders.
	needsKeys := c.Mode == "arb" || c.Mode == "hedge" || c.Mode == "full"
	if needsKeys {
		if c.Drift.ApiKey == "" || (c.Drift.ApiSecret == "" && c.Drift.EncryptedKeyPath == "") {
			errs = append(errs, "drift: api_key and either api_secret or encrypted_key_path must be set for mode "+c.Mode)
		}
		if c.Drift.EncryptedKeyPath != "" && c.Drift.KeyPassword == "" {
			errs = append(errs, "drift: key_password is required when encrypted_key_path is set")
		}
		if c.Mango.ApiKey == "" || c.Mango.ApiSecret == "" {
			errs = append(errs, "mango: api_key and api_secret must be set for mode "+c.Mode)
		}
	}

	if c.Drift.RestHost == "" {
		errs = append(errs, "drift: rest_host must not be empty")
	}
	if c.Drift.WsHost == "" {
		errs = append(errs, "drift: ws_host must not be empty")
	}
	if c.Mango.RestHost == "" {
		errs = append(errs, "mango: rest_host must not be empty")
	}

	// Engine
	if c.Engine.ArbAsset == "" {
		errs = append(errs, "engine: arb_asset must not be empty")
	}
	if len(c.Engine.Assets) == 0 {
		errs = append(errs, "engine: assets must not be empty")
	}
	if c.Engine.SpreadThreshold <= 0 {
		errs = append(errs, "engine: spread_threshold must be > 0")
	}
	if c.Engine.PositionSizeUSD <= 0 {
		errs = append(errs, "engine: position_size_usd must be > 0")
	}
	if c.Engine.MaxPositionSize < c.Engine.PositionSizeUSD {
		errs = append(errs, "engine: max_position_size must be >= position_size_usd")
	}
	if c.Engine.PollInterval.Duration <= 0 {
		errs = append(errs, "engine: poll_interval must be > 0")
	}

	// Hedge
	if c.Hedge.PollInterval.Duration <= 0 {
		errs = append(errs, "hedge: poll_interval must be > 0")
	}
	if c.Hedge.DebounceTTL.Duration <= 0 {
		errs = append(errs, "hedge: debounce_ttl must be > 0")
	}
	for asset, min := range c.Hedge.MinChange {
		if min <= 0 {
			errs = append(errs, fmt.Sprintf("hedge: min_change[%s] must be > 0", asset))
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis — optional; an empty addr disables the status mirror.
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only when archival is enabled.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
