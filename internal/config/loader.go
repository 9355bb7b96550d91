package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DRIFTING_* environment variable overrides, and
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

// applyEnvOverrides reads well-known DRIFTING_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Drift ──
	setStr(&cfg.Drift.RestHost, "DRIFTING_DRIFT_REST_HOST")
	setStr(&cfg.Drift.WsHost, "DRIFTING_DRIFT_WS_HOST")
	setStr(&cfg.Drift.ApiKey, "DRIFTING_DRIFT_API_KEY")
	setStr(&cfg.Drift.ApiSecret, "DRIFTING_DRIFT_API_SECRET")
	setStr(&cfg.Drift.EncryptedKeyPath, "DRIFTING_DRIFT_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Drift.KeyPassword, "DRIFTING_DRIFT_KEY_PASSWORD")
	setStr(&cfg.Drift.SubAccount, "DRIFTING_DRIFT_SUB_ACCOUNT")

	// ── Mango ──
	setStr(&cfg.Mango.RestHost, "DRIFTING_MANGO_REST_HOST")
	setStr(&cfg.Mango.ApiKey, "DRIFTING_MANGO_API_KEY")
	setStr(&cfg.Mango.ApiSecret, "DRIFTING_MANGO_API_SECRET")
	setStr(&cfg.Mango.SubAccount, "DRIFTING_MANGO_SUB_ACCOUNT")

	// ── Engine ──
	setStr(&cfg.Engine.ArbAsset, "DRIFTING_ENGINE_ARB_ASSET")
	setStringSlice(&cfg.Engine.Assets, "DRIFTING_ENGINE_ASSETS")
	setFloat64(&cfg.Engine.SpreadThreshold, "DRIFTING_ENGINE_SPREAD_THRESHOLD")
	setFloat64(&cfg.Engine.PositionSizeUSD, "DRIFTING_ENGINE_POSITION_SIZE_USD")
	setFloat64(&cfg.Engine.MaxPositionSize, "DRIFTING_ENGINE_MAX_POSITION_SIZE")
	setDuration(&cfg.Engine.PollInterval, "DRIFTING_ENGINE_POLL_INTERVAL")
	setDuration(&cfg.Engine.TelemetryInterval, "DRIFTING_ENGINE_TELEMETRY_INTERVAL")

	// ── Hedge ──
	setDuration(&cfg.Hedge.PollInterval, "DRIFTING_HEDGE_POLL_INTERVAL")
	setDuration(&cfg.Hedge.RetryDelay, "DRIFTING_HEDGE_RETRY_DELAY")
	setDuration(&cfg.Hedge.DebounceTTL, "DRIFTING_HEDGE_DEBOUNCE_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DRIFTING_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DRIFTING_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DRIFTING_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DRIFTING_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DRIFTING_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DRIFTING_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DRIFTING_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DRIFTING_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DRIFTING_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DRIFTING_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DRIFTING_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DRIFTING_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DRIFTING_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DRIFTING_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DRIFTING_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DRIFTING_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "DRIFTING_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DRIFTING_S3_REGION")
	setStr(&cfg.S3.Bucket, "DRIFTING_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DRIFTING_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DRIFTING_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DRIFTING_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DRIFTING_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "DRIFTING_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "DRIFTING_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DRIFTING_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DRIFTING_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DRIFTING_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DRIFTING_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DRIFTING_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DRIFTING_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DRIFTING_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DRIFTING_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DRIFTING_MODE")
	setStr(&cfg.LogLevel, "DRIFTING_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
