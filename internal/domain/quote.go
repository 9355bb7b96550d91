package domain

import "time"

// MarkPriceUpdate is a single mark-price event pushed by the drift venue for
// one market. RawPrice is the venue's mark price before any slippage
// adjustment.
type MarkPriceUpdate struct {
	Market    string
	RawPrice  float64
	Timestamp time.Time
}

// PriceQuote is a slippage-adjusted entry price for one direction on one
// venue. EffectivePrice is what a trade of the configured notional would
// actually pay (long) or receive (short).
type PriceQuote struct {
	Venue          string
	Market         string
	Direction      Direction
	RawPrice       float64
	EffectivePrice float64
	UpdatedAt      time.Time
}

// Ready reports whether the quote carries a usable price. A zero effective
// price means no mark-price event has arrived yet and no decision may be
// taken on it.
func (q PriceQuote) Ready() bool {
	return q.EffectivePrice > 0
}

// EntryPrices bundles the long and short entry quotes for one market,
// recomputed together on every mark-price event.
type EntryPrices struct {
	LongEntry  PriceQuote
	ShortEntry PriceQuote
}

// Ready reports whether both entry quotes are usable.
func (e EntryPrices) Ready() bool {
	return e.LongEntry.Ready() && e.ShortEntry.Ready()
}
