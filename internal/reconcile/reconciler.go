// Package reconcile turns fired signals and venue order state into the
// minimal set of cancel/modify/place actions. Two strategies share the
// interface: the paired executor submits two opposite market legs at once,
// and the resting hedger maintains at most one passive order per market.
package reconcile

import (
	"context"

	"github.com/01protocol/drifting-01/internal/domain"
)

// Input is one cycle's decision context handed to a reconciler.
type Input struct {
	// Asset is the asset symbol, e.g. "SOL".
	Asset string
	// Signals are this cycle's evaluated spread signals. Only the paired
	// executor consumes them.
	Signals []domain.SpreadSignal
	// Entries are the drift effective entry prices used to size legs.
	Entries domain.EntryPrices
}

// Outcome collects what a reconciliation produced for journaling.
type Outcome struct {
	Events []domain.ActionEvent
	Fills  []domain.Fill
}

// Reconciler is the pluggable order-lifecycle strategy driven by the engine.
type Reconciler interface {
	// Name identifies the strategy in logs and journal entries.
	Name() string
	// Reconcile performs one cycle's order actions. Errors are returned for
	// the engine to log; they never abort the polling loop.
	Reconcile(ctx context.Context, in Input) (Outcome, error)
}

// Alerter delivers operator notifications. Implemented by notify.Notifier.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}
