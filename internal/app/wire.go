package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/01protocol/drifting-01/internal/blob/s3"
	"github.com/01protocol/drifting-01/internal/cache/redis"
	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/crypto"
	"github.com/01protocol/drifting-01/internal/domain"
	"github.com/01protocol/drifting-01/internal/metrics"
	"github.com/01protocol/drifting-01/internal/notify"
	"github.com/01protocol/drifting-01/internal/platform/drift"
	"github.com/01protocol/drifting-01/internal/platform/mango"
	"github.com/01protocol/drifting-01/internal/store/postgres"
)

// statusTTL bounds how long a mirrored engine status stays readable after
// the loop that wrote it dies.
const statusTTL = 60 * time.Second

// Dependencies bundles every dependency the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Venue clients
	Drift   *drift.Client
	DriftWS *drift.WSClient
	Mango   *mango.Client

	// Persistence
	Actions domain.ActionStore
	Fills   domain.FillStore

	// Advisory sidecars; nil when not configured.
	Status   domain.StatusCache
	Archiver domain.Archiver

	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Metrics: metrics.New(),
	}

	// --- Venue clients ---
	driftSecret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           cfg.Drift.ApiSecret,
		EncryptedSecretPath: cfg.Drift.EncryptedKeyPath,
		Password:            cfg.Drift.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: drift secret: %w", err)
	}
	driftAuth := &crypto.HMACAuth{Key: cfg.Drift.ApiKey, Secret: driftSecret}
	deps.Drift = drift.NewClient(cfg.Drift.RestHost, driftAuth, cfg.Drift.SubAccount)
	deps.DriftWS = drift.NewWSClient(cfg.Drift.WsHost)

	mangoAuth := &crypto.HMACAuth{Key: cfg.Mango.ApiKey, Secret: cfg.Mango.ApiSecret}
	deps.Mango = mango.NewClient(cfg.Mango.RestHost, mangoAuth, cfg.Mango.SubAccount)

	// --- PostgreSQL (decision journal) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Actions = postgres.NewActionStore(pool)
	deps.Fills = postgres.NewFillStore(pool)

	// --- Redis (status mirror, optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Status = redis.NewStatusCache(redisClient, statusTTL)
	}

	// --- S3 blob storage (journal archival, optional) ---
	if cfg.Archive.Enabled {
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

		deps.Archiver = s3blob.NewJournalArchiver(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.Actions,
			deps.Fills,
			logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
