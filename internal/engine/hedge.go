package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
	"github.com/01protocol/drifting-01/internal/metrics"
	"github.com/01protocol/drifting-01/internal/reconcile"
)

// HedgeCycle runs the resting hedger over the configured asset set. Assets
// are processed sequentially inside one cycle; a failure on one asset is
// logged and does not stop the remaining assets.
type HedgeCycle struct {
	assets     []string
	reconciler reconcile.Reconciler

	actions domain.ActionStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHedgeCycle wires the hedging cycle for the given asset universe.
func NewHedgeCycle(assets []string, reconciler reconcile.Reconciler, actions domain.ActionStore, m *metrics.Metrics, logger *slog.Logger) *HedgeCycle {
	return &HedgeCycle{
		assets:     assets,
		reconciler: reconciler,
		actions:    actions,
		metrics:    m,
		logger:     logger.With(slog.String("component", "hedge_cycle")),
	}
}

// Run executes one hedging pass across all assets.
func (c *HedgeCycle) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveCycle("hedge", time.Since(start))
		}
	}()

	var failed []string
	for _, asset := range c.assets {
		out, err := c.reconciler.Reconcile(ctx, reconcile.Input{Asset: asset})
		c.journal(ctx, out)
		if err != nil {
			c.logger.Error("hedge pass failed",
				slog.String("asset", asset),
				slog.String("error", err.Error()))
			if c.metrics != nil {
				c.metrics.IncError("hedge")
			}
			failed = append(failed, asset)
		}
	}

	if len(failed) > 0 {
		// Reported so Loop applies the retry delay; already logged per asset.
		return fmt.Errorf("engine: hedge pass failed for %s", strings.Join(failed, ","))
	}
	return nil
}

// journal persists hedge action events.
func (c *HedgeCycle) journal(ctx context.Context, out reconcile.Outcome) {
	if c.actions == nil {
		return
	}
	for _, ev := range out.Events {
		if err := c.actions.Log(ctx, ev); err != nil {
			c.logger.Error("journal write failed", slog.String("error", err.Error()))
		} else if c.metrics != nil {
			c.metrics.IncAction(string(ev.Type))
		}
	}
}
