package reconcile

import (
	"sync"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// debounceKey identifies one placement slot: at most one fresh order per
// market and side.
type debounceKey struct {
	market string
	side   domain.OrderSide
}

// Debounce suppresses duplicate order placement for a (market, side) pair
// within a TTL window after a successful placeOrder, covering the gap before
// the venue's open-order listing reflects the new order. It is in-memory
// only; a restart loses the window, which is acceptable at a ~5s TTL.
type Debounce struct {
	placed map[debounceKey]time.Time
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

// NewDebounce creates a debounce window with the given TTL.
func NewDebounce(ttl time.Duration) *Debounce {
	return &Debounce{
		placed: make(map[debounceKey]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// newDebounceAt is like NewDebounce with an injectable clock, for tests.
func newDebounceAt(ttl time.Duration, now func() time.Time) *Debounce {
	d := NewDebounce(ttl)
	d.now = now
	return d
}

// Fresh reports whether a placement for the market/side happened within the
// TTL window. A fresh entry means placement must be suppressed this cycle.
func (d *Debounce) Fresh(market string, side domain.OrderSide) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	placedAt, ok := d.placed[debounceKey{market: market, side: side}]
	return ok && d.now().Sub(placedAt) < d.ttl
}

// Record marks a successful placement for the market/side at the current
// time.
func (d *Debounce) Record(market string, side domain.OrderSide) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.placed[debounceKey{market: market, side: side}] = d.now()
}

// Prune removes expired entries. Called once per cycle to keep the map
// bounded.
func (d *Debounce) Prune() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, placedAt := range d.placed {
		if now.Sub(placedAt) >= d.ttl {
			delete(d.placed, key)
		}
	}
}
