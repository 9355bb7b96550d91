package reconcile

import "context"

// Monitor is the observe-only strategy: signals are computed and journaled by
// the engine but no order ever leaves the process.
type Monitor struct{}

var _ Reconciler = Monitor{}

// Name implements Reconciler.
func (Monitor) Name() string { return "monitor" }

// Reconcile implements Reconciler as a no-op.
func (Monitor) Reconcile(_ context.Context, _ Input) (Outcome, error) {
	return Outcome{}, nil
}
