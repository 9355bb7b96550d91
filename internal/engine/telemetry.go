package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/01protocol/drifting-01/internal/metrics"
)

// DriftAccountSource reports the drift account value.
type DriftAccountSource interface {
	GetAccountValue(ctx context.Context) (float64, error)
}

// MangoAccountSource reports the mango account value and token balances.
type MangoAccountSource interface {
	GetAccountValue(ctx context.Context) (float64, error)
	GetBalances(ctx context.Context) (map[string]float64, error)
}

// TelemetryCycle refreshes the account-value and balance gauges for both
// venues on a slower cadence than the decision loops.
type TelemetryCycle struct {
	drift   DriftAccountSource
	mango   MangoAccountSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewTelemetryCycle wires the telemetry refresh.
func NewTelemetryCycle(drift DriftAccountSource, mango MangoAccountSource, m *metrics.Metrics, logger *slog.Logger) *TelemetryCycle {
	return &TelemetryCycle{
		drift:   drift,
		mango:   mango,
		metrics: m,
		logger:  logger.With(slog.String("component", "telemetry")),
	}
}

// Run fetches both venues' account state concurrently and updates the
// gauges.
func (c *TelemetryCycle) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.metrics.ObserveCycle("telemetry", time.Since(start))
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		value, err := c.drift.GetAccountValue(gctx)
		if err != nil {
			return fmt.Errorf("drift account value: %w", err)
		}
		c.metrics.SetAccountValue("drift", value)
		return nil
	})

	g.Go(func() error {
		value, err := c.mango.GetAccountValue(gctx)
		if err != nil {
			return fmt.Errorf("mango account value: %w", err)
		}
		c.metrics.SetAccountValue("mango", value)

		balances, err := c.mango.GetBalances(gctx)
		if err != nil {
			return fmt.Errorf("mango balances: %w", err)
		}
		for token, value := range balances {
			c.metrics.SetAssetBalance("mango", token, value)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.metrics.IncError("telemetry")
		return fmt.Errorf("engine: telemetry: %w", err)
	}
	return nil
}
