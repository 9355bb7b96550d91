// Package pricing converts raw mark prices into slippage-adjusted effective
// entry prices and holds the latest mark-price value between polling cycles.
package pricing

import (
	"sync/atomic"

	"github.com/01protocol/drifting-01/internal/domain"
)

// Register is a latest-value cell for mark-price updates. The WebSocket event
// handler is the only writer and the decision cycle is the only reader, so a
// single atomic pointer is all the synchronization needed.
type Register struct {
	latest atomic.Pointer[domain.MarkPriceUpdate]
}

// NewRegister returns an empty register. Load reports not-ready until the
// first Store.
func NewRegister() *Register {
	return &Register{}
}

// Store replaces the held value with a newer update.
func (r *Register) Store(update domain.MarkPriceUpdate) {
	r.latest.Store(&update)
}

// Load returns the most recent update. ok is false until the first event
// arrives; callers must skip any decision on a not-ready register.
func (r *Register) Load() (domain.MarkPriceUpdate, bool) {
	p := r.latest.Load()
	if p == nil {
		return domain.MarkPriceUpdate{}, false
	}
	return *p, true
}
