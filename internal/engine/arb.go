package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/domain"
	"github.com/01protocol/drifting-01/internal/metrics"
	"github.com/01protocol/drifting-01/internal/reconcile"
	"github.com/01protocol/drifting-01/internal/signal"
)

// MarkPriceSource yields the latest mark-price event, if any has arrived.
// Implemented by pricing.Register.
type MarkPriceSource interface {
	Load() (domain.MarkPriceUpdate, bool)
}

// EntryEstimator converts a mark price into effective entry prices.
// Implemented by pricing.Estimator.
type EntryEstimator interface {
	EntryPrices(ctx context.Context, market string, markPrice float64) (domain.EntryPrices, error)
}

// ExposureRefresher re-queries venue positions and returns the fresh state.
// Implemented by exposure.Tracker.
type ExposureRefresher interface {
	Refresh(ctx context.Context, asset string, markPrice float64) (domain.ExposureState, error)
}

// MangoQuoteSource supplies the mango top of book.
type MangoQuoteSource interface {
	GetOrderbook(ctx context.Context, market string) (domain.OrderbookSnapshot, error)
}

// ArbCycle is one paired-arbitrage decision cycle for a single asset: read
// the latest mark price, fan out venue queries, evaluate both directions,
// and hand fired signals to the reconciler.
type ArbCycle struct {
	asset string
	mode  string

	marks      MarkPriceSource
	estimator  EntryEstimator
	exposure   ExposureRefresher
	signals    *signal.Engine
	reconciler reconcile.Reconciler
	mango      MangoQuoteSource

	actions domain.ActionStore
	fills   domain.FillStore
	status  domain.StatusCache
	alerter reconcile.Alerter
	metrics *metrics.Metrics
	logger  *slog.Logger

	cycleCount atomic.Int64
}

// ArbCycleConfig bundles the ArbCycle collaborators.
type ArbCycleConfig struct {
	Asset      string
	Mode       string
	Marks      MarkPriceSource
	Estimator  EntryEstimator
	Exposure   ExposureRefresher
	Signals    *signal.Engine
	Reconciler reconcile.Reconciler
	Mango      MangoQuoteSource
	Actions    domain.ActionStore
	Fills      domain.FillStore
	Status     domain.StatusCache
	Alerter    reconcile.Alerter
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewArbCycle wires a paired-arbitrage cycle.
func NewArbCycle(cfg ArbCycleConfig) *ArbCycle {
	return &ArbCycle{
		asset:      cfg.Asset,
		mode:       cfg.Mode,
		marks:      cfg.Marks,
		estimator:  cfg.Estimator,
		exposure:   cfg.Exposure,
		signals:    cfg.Signals,
		reconciler: cfg.Reconciler,
		mango:      cfg.Mango,
		actions:    cfg.Actions,
		fills:      cfg.Fills,
		status:     cfg.Status,
		alerter:    cfg.Alerter,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With(slog.String("component", "arb_cycle"), slog.String("asset", cfg.Asset)),
	}
}

// Run executes one decision cycle. Venue I/O fans out concurrently and is
// joined before any decision; stale inputs skip the cycle silently.
func (c *ArbCycle) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveCycle("arb", time.Since(start))
		}
	}()
	count := c.cycleCount.Add(1)

	mark, ok := c.marks.Load()
	if !ok {
		// No mark-price event yet: not an error, just nothing to decide on.
		c.logger.Debug("mark price not ready, skipping cycle")
		return nil
	}

	driftMarket := config.DriftMarket(c.asset)
	mangoMarket := config.MangoMarket(c.asset)

	var (
		entries domain.EntryPrices
		book    domain.OrderbookSnapshot
		expo    domain.ExposureState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = c.estimator.EntryPrices(gctx, driftMarket, mark.RawPrice)
		return err
	})
	g.Go(func() error {
		var err error
		book, err = c.mango.GetOrderbook(gctx, mangoMarket)
		return err
	})
	g.Go(func() error {
		var err error
		expo, err = c.exposure.Refresh(gctx, c.asset, mark.RawPrice)
		return err
	})
	if err := g.Wait(); err != nil {
		if c.metrics != nil {
			c.metrics.IncError("arb")
		}
		return fmt.Errorf("engine: venue query: %w", err)
	}

	bid, ask := book.BestBid(), book.BestAsk()
	now := time.Now()

	sigs := c.signals.Evaluate(c.asset, entries, bid, ask, now)
	if sigs == nil {
		c.publishStatus(ctx, count, entries, bid, ask, expo, signal.Diffs{}, "")
		return nil
	}

	diffs := signal.ComputeDiffs(entries, bid, ask)
	if c.metrics != nil {
		c.metrics.SetSpreadDiff(c.asset, string(domain.DirectionLong), diffs.LongDiff)
		c.metrics.SetSpreadDiff(c.asset, string(domain.DirectionShort), diffs.ShortDiff)
		c.metrics.SetNetExposure(c.asset, expo.NetSize)
	}

	c.journalSignals(ctx, sigs)

	out, err := c.reconciler.Reconcile(ctx, reconcile.Input{
		Asset:   c.asset,
		Signals: sigs,
		Entries: entries,
	})
	c.journalOutcome(ctx, out)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncError("arb")
		}
		c.publishStatus(ctx, count, entries, bid, ask, expo, diffs, err.Error())
		return fmt.Errorf("engine: reconcile: %w", err)
	}

	c.publishStatus(ctx, count, entries, bid, ask, expo, diffs, "")
	return nil
}

// journalSignals records fired signals and exposure-capped forgone
// opportunities. Journal failures are logged, never fatal to the cycle.
func (c *ArbCycle) journalSignals(ctx context.Context, sigs []domain.SpreadSignal) {
	for _, sig := range sigs {
		var kind domain.ActionType
		switch {
		case sig.Fired:
			kind = domain.ActionSignalFired
		case sig.Reason == "exposure cap":
			kind = domain.ActionForgone
		default:
			continue // routine below-threshold cycles stay out of the journal
		}

		ev := domain.ActionEvent{
			ID:    uuid.NewString(),
			Type:  kind,
			Asset: sig.Asset,
			Detail: map[string]any{
				"direction":  string(sig.Direction),
				"spread_pct": sig.SpreadPercent,
				"threshold":  sig.Threshold,
				"softened":   sig.Softened,
				"reason":     sig.Reason,
			},
			CreatedAt: sig.ComputedAt,
		}
		if c.actions != nil {
			if err := c.actions.Log(ctx, ev); err != nil {
				c.logger.Error("journal write failed", slog.String("error", err.Error()))
			} else if c.metrics != nil {
				c.metrics.IncAction(string(kind))
			}
		}

		if sig.Fired && c.alerter != nil {
			msg := fmt.Sprintf("%s %s spread %.4f%% > threshold %.4f%%",
				sig.Asset, sig.Direction, sig.SpreadPercent, sig.Threshold)
			if err := c.alerter.Notify(ctx, "signal_fired", "Spread signal fired", msg); err != nil {
				c.logger.Warn("signal notification failed", slog.String("error", err.Error()))
			}
		}
	}
}

// journalOutcome persists the reconciler's events and fills.
func (c *ArbCycle) journalOutcome(ctx context.Context, out reconcile.Outcome) {
	if c.actions != nil {
		for _, ev := range out.Events {
			if err := c.actions.Log(ctx, ev); err != nil {
				c.logger.Error("journal write failed", slog.String("error", err.Error()))
			} else if c.metrics != nil {
				c.metrics.IncAction(string(ev.Type))
			}
		}
	}
	if c.fills != nil {
		for _, fill := range out.Fills {
			if err := c.fills.Insert(ctx, fill); err != nil {
				c.logger.Error("fill journal write failed", slog.String("error", err.Error()))
			}
		}
	}
}

// publishStatus mirrors the cycle's view into the status cache. The mirror
// is advisory: a cache outage is logged and ignored.
func (c *ArbCycle) publishStatus(ctx context.Context, count int64, entries domain.EntryPrices, bid, ask float64, expo domain.ExposureState, diffs signal.Diffs, cycleErr string) {
	if c.status == nil {
		return
	}

	st := domain.EngineStatus{
		Mode:           c.mode,
		Asset:          c.asset,
		LongEntry:      entries.LongEntry.EffectivePrice,
		ShortEntry:     entries.ShortEntry.EffectivePrice,
		VenueBBid:      bid,
		VenueBAsk:      ask,
		NetExposure:    expo.NetSize,
		LongDiff:       diffs.LongDiff,
		ShortDiff:      diffs.ShortDiff,
		CycleCount:     count,
		LastCycleAt:    time.Now(),
		LastCycleError: cycleErr,
	}
	if err := c.status.SetStatus(ctx, st); err != nil {
		c.logger.Warn("status mirror write failed", slog.String("error", err.Error()))
	}
}
