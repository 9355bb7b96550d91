package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "hedge"

[engine]
spread_threshold = 0.6
poll_interval = "2s"

[hedge]
min_change = { SOL = 3.0 }
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hedge", cfg.Mode)
	assert.Equal(t, 0.6, cfg.Engine.SpreadThreshold)
	assert.Equal(t, 2*time.Second, cfg.Engine.PollInterval.Duration)
	assert.Equal(t, 3.0, cfg.Hedge.MinChange["SOL"])

	// Untouched fields keep their defaults.
	assert.Equal(t, "SOL", cfg.Engine.ArbAsset)
	assert.Equal(t, 100.0, cfg.Engine.PositionSizeUSD)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
[drift]
api_key = "from-file"
`)

	t.Setenv("DRIFTING_DRIFT_API_KEY", "from-env")
	t.Setenv("DRIFTING_ENGINE_POLL_INTERVAL", "250ms")
	t.Setenv("DRIFTING_POSTGRES_PORT", "5433")
	t.Setenv("DRIFTING_ARCHIVE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Drift.ApiKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.PollInterval.Duration)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.True(t, cfg.Archive.Enabled)
}

func TestValidateDefaultsMonitorMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "monitor"

	// Monitor mode submits no orders, so venue credentials are optional.
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresCredentialsForTrading(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "full"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drift: api_key")
	assert.Contains(t, err.Error(), "mango: api_key")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Engine.SpreadThreshold = 0
	cfg.Engine.MaxPositionSize = 10 // below position_size_usd
	cfg.Redis.PoolSize = 0
	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "bogus"`)
	assert.Contains(t, err.Error(), "spread_threshold must be > 0")
	assert.Contains(t, err.Error(), "max_position_size must be >= position_size_usd")
	assert.Contains(t, err.Error(), "redis: pool_size must be >= 1")
	assert.Contains(t, err.Error(), "s3: bucket must not be empty")
}

func TestValidateEmptyRedisAddrDisablesMirror(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "monitor"
	cfg.Redis.Addr = ""
	cfg.Redis.PoolSize = 0

	// No status mirror configured is a valid deployment; the rest of the
	// Redis block is ignored.
	require.NoError(t, cfg.Validate())
}

func TestMarketSymbols(t *testing.T) {
	assert.Equal(t, "SOL-PERP", DriftMarket("sol"))
	assert.Equal(t, "BTC-PERP", DriftMarket("BTC"))
	assert.Equal(t, "ETH/USD", MangoMarket("eth"))
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Drift.ApiSecret = "hunter2"
	cfg.Postgres.Password = "pgpass"
	cfg.Notify.TelegramToken = "tg-token"

	out := RedactedConfig(&cfg)

	assert.Equal(t, "***", out.Drift.ApiSecret)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.Notify.TelegramToken)

	// Non-secret fields and the original are untouched.
	assert.Equal(t, cfg.Drift.RestHost, out.Drift.RestHost)
	assert.Equal(t, "hunter2", cfg.Drift.ApiSecret)

	// Mutating the copy's collections must not leak back.
	out.Hedge.MinChange["SOL"] = 99
	assert.Equal(t, 5.0, cfg.Hedge.MinChange["SOL"])
}
