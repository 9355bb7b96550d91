package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/domain"
)

// DriftTrader submits market orders on drift.
type DriftTrader interface {
	SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error)
}

// MangoTrader submits market orders on mango.
type MangoTrader interface {
	SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error)
}

// PairedExecutor is the aggressive strategy: when a signal fires it submits
// two opposite market legs of equal size, one per venue, as a single action.
// A partially-executed pair is alerted and journaled, never unwound; the
// operator flattens the mismatched leg manually.
type PairedExecutor struct {
	drift    DriftTrader
	mango    MangoTrader
	alerter  Alerter
	notional float64
	logger   *slog.Logger
}

var _ Reconciler = (*PairedExecutor)(nil)

// NewPairedExecutor creates the paired strategy with the per-trade notional
// in quote units.
func NewPairedExecutor(drift DriftTrader, mango MangoTrader, alerter Alerter, notional float64, logger *slog.Logger) *PairedExecutor {
	return &PairedExecutor{
		drift:    drift,
		mango:    mango,
		alerter:  alerter,
		notional: notional,
		logger:   logger.With(slog.String("component", "paired_executor")),
	}
}

// Name implements Reconciler.
func (p *PairedExecutor) Name() string { return "paired" }

// Reconcile submits a two-leg pair for every fired signal. Fired signals are
// independent: a failure on one does not stop the other from executing. A
// partially-executed pair is returned as domain.ErrPartialExecution so the
// engine records a distinguishable cycle error.
func (p *PairedExecutor) Reconcile(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome
	var err error

	for _, sig := range in.Signals {
		if !sig.Fired {
			continue
		}
		if pairErr := p.executePair(ctx, in, sig, &out); pairErr != nil {
			err = pairErr
		}
	}

	return out, err
}

// executePair builds and submits both legs for one fired signal. Submission
// failures are logged and the cycle continues; there is no rollback of a
// partially-sent leg.
func (p *PairedExecutor) executePair(ctx context.Context, in Input, sig domain.SpreadSignal, out *Outcome) error {
	entry := in.Entries.LongEntry.EffectivePrice
	if sig.Direction == domain.DirectionShort {
		entry = in.Entries.ShortEntry.EffectivePrice
	}
	if entry <= 0 {
		return nil
	}

	// Both legs carry the same base quantity so the pair is delta neutral.
	qty := p.notional / entry

	driftIntent := domain.OrderIntent{
		Venue:  "drift",
		Market: config.DriftMarket(in.Asset),
		Side:   sig.Direction.Side(),
		Size:   qty,
		Kind:   domain.OrderKindMarket,
	}
	mangoIntent := domain.OrderIntent{
		Venue:  "mango",
		Market: config.MangoMarket(in.Asset),
		Side:   sig.Direction.Side().Opposite(),
		Size:   qty,
		Kind:   domain.OrderKindMarket,
	}

	p.logger.Info("paired submit",
		slog.String("asset", in.Asset),
		slog.String("direction", string(sig.Direction)),
		slog.Float64("spread_pct", sig.SpreadPercent),
		slog.Float64("entry", entry),
		slog.Float64("qty", qty))

	driftRes, driftErr := p.drift.SubmitOrder(ctx, driftIntent)
	if driftErr != nil {
		p.logger.Error("drift leg failed",
			slog.String("asset", in.Asset),
			slog.String("error", driftErr.Error()))
	} else {
		out.Fills = append(out.Fills, fillFromResult("drift", driftIntent, driftRes))
	}

	mangoRes, mangoErr := p.mango.SubmitOrder(ctx, mangoIntent)
	if mangoErr != nil {
		p.logger.Error("mango leg failed",
			slog.String("asset", in.Asset),
			slog.String("error", mangoErr.Error()))
	} else {
		out.Fills = append(out.Fills, fillFromResult("mango", mangoIntent, mangoRes))
	}

	switch {
	case driftErr == nil && mangoErr == nil:
		out.Events = append(out.Events, domain.ActionEvent{
			ID:    uuid.NewString(),
			Type:  domain.ActionPairedSubmit,
			Asset: in.Asset,
			Detail: map[string]any{
				"direction":   string(sig.Direction),
				"spread_pct":  sig.SpreadPercent,
				"threshold":   sig.Threshold,
				"qty":         qty,
				"drift_order": driftRes.OrderID,
				"mango_order": mangoRes.OrderID,
			},
			CreatedAt: time.Now(),
		})
		return nil

	case driftErr != nil && mangoErr != nil:
		// Nothing went out: an ordinary venue-call failure, the next cycle
		// retries if the signal still holds.
		return nil

	default:
		// Exactly one leg executed: the book now carries unhedged direction.
		p.partialExecution(ctx, in.Asset, sig, qty, driftErr, mangoErr, out)
		return fmt.Errorf("reconcile: %s %s: %w", in.Asset, sig.Direction, domain.ErrPartialExecution)
	}
}

// partialExecution surfaces a one-leg fill as a distinguishable alert so an
// operator can manually flatten the mismatched leg.
func (p *PairedExecutor) partialExecution(ctx context.Context, asset string, sig domain.SpreadSignal, qty float64, driftErr, mangoErr error, out *Outcome) {
	filledVenue, failedErr := "drift", mangoErr
	if driftErr != nil {
		filledVenue, failedErr = "mango", driftErr
	}

	p.logger.Error("partial paired execution",
		slog.String("asset", asset),
		slog.String("direction", string(sig.Direction)),
		slog.String("filled_venue", filledVenue),
		slog.Float64("qty", qty),
		slog.String("error", failedErr.Error()))

	out.Events = append(out.Events, domain.ActionEvent{
		ID:    uuid.NewString(),
		Type:  domain.ActionPartialExecution,
		Asset: asset,
		Detail: map[string]any{
			"direction":    string(sig.Direction),
			"filled_venue": filledVenue,
			"qty":          qty,
			"error":        failedErr.Error(),
		},
		CreatedAt: time.Now(),
	})

	if p.alerter != nil {
		msg := fmt.Sprintf("%s %s pair executed only on %s (qty %.6f): %v — flatten the open leg manually",
			asset, sig.Direction, filledVenue, qty, failedErr)
		if err := p.alerter.Notify(ctx, "partial_execution", "Partial paired execution", msg); err != nil {
			p.logger.Error("partial execution alert failed", slog.String("error", err.Error()))
		}
	}
}

// fillFromResult records one executed leg for the fills journal.
func fillFromResult(venue string, intent domain.OrderIntent, res domain.OrderResult) domain.Fill {
	price := res.FilledPrice
	size := res.FilledSize
	if size == 0 {
		size = intent.Size
	}
	return domain.Fill{
		ID:        uuid.NewString(),
		Venue:     venue,
		Market:    intent.Market,
		Side:      intent.Side,
		Price:     price,
		Size:      size,
		OrderID:   res.OrderID,
		CreatedAt: time.Now(),
	}
}
