package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/domain"
	"github.com/01protocol/drifting-01/internal/engine"
	"github.com/01protocol/drifting-01/internal/exposure"
	"github.com/01protocol/drifting-01/internal/platform/drift"
	"github.com/01protocol/drifting-01/internal/pricing"
	"github.com/01protocol/drifting-01/internal/reconcile"
	"github.com/01protocol/drifting-01/internal/server"
	"github.com/01protocol/drifting-01/internal/server/handler"
	"github.com/01protocol/drifting-01/internal/signal"
)

// archiveInterval is how often the archival cycle sweeps for aged rows. The
// retention window is measured in days, so an hourly sweep is plenty.
const archiveInterval = time.Hour

// ArbMode runs the paired-arbitrage loop: drift mark prices stream in over
// the WebSocket, and each cycle may submit both market legs at once.
func (a *App) ArbMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	register, err := a.startMarkPriceFeed(gctx, g, deps)
	if err != nil {
		return err
	}

	paired := reconcile.NewPairedExecutor(
		deps.Drift, deps.Mango, deps.Notifier,
		a.cfg.Engine.PositionSizeUSD, a.logger,
	)
	arb := a.buildArbCycle(deps, register, paired, "arb")

	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "arb", a.cfg.Engine.PollInterval.Duration, 0, arb.Run)
	})
	a.startServer(gctx, g, deps)
	a.startArchive(gctx, g, deps)

	return g.Wait()
}

// HedgeMode runs only the resting-order hedger.
func (a *App) HedgeMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	hedge := a.buildHedgeCycle(deps)
	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "hedge",
			a.cfg.Hedge.PollInterval.Duration, a.cfg.Hedge.RetryDelay.Duration, hedge.Run)
	})
	a.startServer(gctx, g, deps)
	a.startArchive(gctx, g, deps)

	return g.Wait()
}

// MonitorMode runs the decision loop in observe-only fashion: signals are
// computed and journaled but no order ever leaves the process.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	register, err := a.startMarkPriceFeed(gctx, g, deps)
	if err != nil {
		return err
	}

	arb := a.buildArbCycle(deps, register, reconcile.Monitor{}, "monitor")
	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "arb", a.cfg.Engine.PollInterval.Duration, 0, arb.Run)
	})
	a.startServer(gctx, g, deps)

	return g.Wait()
}

// FullMode runs everything: the paired executor, the hedger, telemetry,
// archival, and the HTTP API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	register, err := a.startMarkPriceFeed(gctx, g, deps)
	if err != nil {
		return err
	}

	paired := reconcile.NewPairedExecutor(
		deps.Drift, deps.Mango, deps.Notifier,
		a.cfg.Engine.PositionSizeUSD, a.logger,
	)
	arb := a.buildArbCycle(deps, register, paired, "full")
	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "arb", a.cfg.Engine.PollInterval.Duration, 0, arb.Run)
	})

	hedge := a.buildHedgeCycle(deps)
	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "hedge",
			a.cfg.Hedge.PollInterval.Duration, a.cfg.Hedge.RetryDelay.Duration, hedge.Run)
	})

	telemetry := engine.NewTelemetryCycle(deps.Drift, deps.Mango, deps.Metrics, a.logger)
	g.Go(func() error {
		return engine.Loop(gctx, a.logger, "telemetry",
			a.cfg.Engine.TelemetryInterval.Duration, 0, telemetry.Run)
	})

	a.startServer(gctx, g, deps)
	a.startArchive(gctx, g, deps)

	return g.Wait()
}

// buildArbCycle assembles the estimator, exposure tracker, and signal engine
// around the given reconciler strategy.
func (a *App) buildArbCycle(deps *Dependencies, register *pricing.Register, rec reconcile.Reconciler, mode string) *engine.ArbCycle {
	tracker := exposure.NewTracker(deps.Drift, deps.Mango, a.cfg.Engine.MaxPositionSize)
	signals := signal.NewEngine(tracker, a.cfg.Engine.SpreadThreshold, a.logger)

	return engine.NewArbCycle(engine.ArbCycleConfig{
		Asset:      a.cfg.Engine.ArbAsset,
		Mode:       mode,
		Marks:      register,
		Estimator:  pricing.NewEstimator(deps.Drift),
		Exposure:   tracker,
		Signals:    signals,
		Reconciler: rec,
		Mango:      deps.Mango,
		Actions:    deps.Actions,
		Fills:      deps.Fills,
		Status:     deps.Status,
		Alerter:    deps.Notifier,
		Metrics:    deps.Metrics,
		Logger:     a.logger,
	})
}

// buildHedgeCycle assembles the resting hedger over the full asset universe.
func (a *App) buildHedgeCycle(deps *Dependencies) *engine.HedgeCycle {
	debounce := reconcile.NewDebounce(a.cfg.Hedge.DebounceTTL.Duration)
	hedger := reconcile.NewRestingHedger(
		deps.Drift, deps.Mango, debounce, a.cfg.Hedge.MinChange, a.logger,
	)
	return engine.NewHedgeCycle(a.cfg.Engine.Assets, hedger, deps.Actions, deps.Metrics, a.logger)
}

// startMarkPriceFeed connects the drift WebSocket, subscribes to the arb
// asset's mark price, and routes updates into a fresh price register. The
// status cache mirror is advisory and best-effort.
func (a *App) startMarkPriceFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) (*pricing.Register, error) {
	register := pricing.NewRegister()

	deps.DriftWS.OnMarkPrice(func(update domain.MarkPriceUpdate) {
		register.Store(update)
		if deps.Status != nil {
			if err := deps.Status.SetPrice(ctx, drift.Venue, update.Market, update.RawPrice, update.Timestamp); err != nil {
				a.logger.Debug("price mirror failed", slog.String("error", err.Error()))
			}
		}
	})

	if err := deps.DriftWS.Connect(ctx); err != nil {
		return nil, err
	}
	market := config.DriftMarket(a.cfg.Engine.ArbAsset)
	if err := deps.DriftWS.SubscribeMarkPrice(ctx, []string{market}); err != nil {
		return nil, err
	}

	g.Go(func() error {
		<-ctx.Done()
		_ = deps.DriftWS.Close()
		return ctx.Err()
	})

	return register, nil
}

// startServer launches the HTTP API when enabled.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		return
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Status:  handler.NewStatusHandler(deps.Status, a.cfg.Engine.Assets, a.logger),
			Actions: handler.NewActionHandler(deps.Actions, a.logger),
			Fills:   handler.NewFillHandler(deps.Fills, a.logger),
		},
		deps.Metrics.Registry(),
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	})
}

// startArchive launches the journal archival sweep when configured.
func (a *App) startArchive(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil {
		return
	}

	archive := engine.NewArchiveCycle(deps.Archiver, a.cfg.Archive.RetentionDays, a.logger)
	g.Go(func() error {
		return engine.Loop(ctx, a.logger, "archive", archiveInterval, 0, archive.Run)
	})
}
