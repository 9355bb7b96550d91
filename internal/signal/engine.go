// Package signal computes the cross-venue spread percentages and applies the
// exposure-aware threshold policy that decides whether a trade fires.
package signal

import (
	"log/slog"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// Diffs holds the two spread percentages for one cycle, one per direction on
// the drift side.
type Diffs struct {
	// LongDiff is the profit, in percent, from buying on drift at its long
	// entry price and selling on mango at its bid.
	LongDiff float64
	// ShortDiff is the profit, in percent, from selling on drift at its short
	// entry price and buying on mango at its ask.
	ShortDiff float64
}

// ComputeDiffs derives both spread percentages from the drift effective entry
// prices and the mango top of book.
func ComputeDiffs(entries domain.EntryPrices, mangoBid, mangoAsk float64) Diffs {
	longEntry := entries.LongEntry.EffectivePrice
	shortEntry := entries.ShortEntry.EffectivePrice
	return Diffs{
		LongDiff:  (mangoBid - longEntry) / longEntry * 100,
		ShortDiff: (shortEntry - mangoAsk) / mangoAsk * 100,
	}
}

// ExposureGate reports whether opening in a direction is permitted by the
// exposure cap. Implemented by exposure.Tracker.
type ExposureGate interface {
	CanOpen(direction domain.Direction, asset string) bool
}

// Engine evaluates both trade directions against the threshold policy each
// cycle. Directions are independent: one firing does not short-circuit the
// other.
type Engine struct {
	gate      ExposureGate
	threshold float64
	logger    *slog.Logger
}

// NewEngine creates a signal engine with the given base threshold in percent.
func NewEngine(gate ExposureGate, threshold float64, logger *slog.Logger) *Engine {
	return &Engine{
		gate:      gate,
		threshold: threshold,
		logger:    logger.With(slog.String("component", "signal")),
	}
}

// ThresholdFor returns the action threshold for a direction. The base
// threshold applies unless the opposite direction's capacity is exhausted, in
// which case this direction reduces exposure and its threshold is softened to
// -0.5x so trades that bring exposure back toward zero trigger more easily.
func (e *Engine) ThresholdFor(direction domain.Direction, asset string) (threshold float64, softened bool) {
	if !e.gate.CanOpen(direction.Opposite(), asset) {
		return -0.5 * e.threshold, true
	}
	return e.threshold, false
}

// Evaluate computes both spread signals for the asset. Every returned signal
// carries its diff, the threshold it was held to, and whether it fired;
// forgone opportunities are logged with full context so decisions can be
// audited after the fact.
//
// Returns nil when either venue's prices are not yet initialized.
func (e *Engine) Evaluate(asset string, entries domain.EntryPrices, mangoBid, mangoAsk float64, now time.Time) []domain.SpreadSignal {
	if !entries.Ready() || mangoBid <= 0 || mangoAsk <= 0 {
		// Stale input is not an error: skip the decision entirely.
		return nil
	}

	diffs := ComputeDiffs(entries, mangoBid, mangoAsk)

	long := e.evaluateDirection(asset, domain.DirectionLong, diffs.LongDiff, now)
	short := e.evaluateDirection(asset, domain.DirectionShort, diffs.ShortDiff, now)

	return []domain.SpreadSignal{long, short}
}

// evaluateDirection applies the threshold policy and exposure gate to one
// direction's diff.
func (e *Engine) evaluateDirection(asset string, direction domain.Direction, diff float64, now time.Time) domain.SpreadSignal {
	threshold, softened := e.ThresholdFor(direction, asset)

	sig := domain.SpreadSignal{
		Asset:         asset,
		Direction:     direction,
		SpreadPercent: diff,
		Threshold:     threshold,
		Softened:      softened,
		ComputedAt:    now,
	}

	if !(diff > threshold) {
		sig.Reason = "below threshold"
		return sig
	}
	if !e.gate.CanOpen(direction, asset) {
		sig.Reason = "exposure cap"
		e.logger.Info("forgone opportunity",
			slog.String("asset", asset),
			slog.String("direction", string(direction)),
			slog.Float64("spread_pct", diff),
			slog.Float64("threshold", threshold),
			slog.String("reason", sig.Reason))
		return sig
	}

	sig.Fired = true
	return sig
}
