package domain

import "time"

// OrderKind indicates how an order executes.
type OrderKind string

const (
	OrderKindLimit  OrderKind = "limit"
	OrderKindMarket OrderKind = "market"
)

// OrderIntent is the unit submitted to a venue: a fully-specified order that
// has not been sent yet.
type OrderIntent struct {
	Venue    string
	Market   string
	Side     OrderSide
	Price    float64 // ignored for market orders
	Size     float64 // base-asset units
	Kind     OrderKind
	PostOnly bool
}

// Notional returns the quote-currency value of the intent.
func (o OrderIntent) Notional() float64 {
	return o.Price * o.Size
}

// ResidentOrder is the reconciler's view of an order currently open on the
// mango venue, as reported by the venue's own open-order query.
type ResidentOrder struct {
	ID       string
	Market   string
	Side     OrderSide
	Price    float64
	Size     float64
	PlacedAt time.Time
}

// OrderResult is the venue's response to an order submission.
type OrderResult struct {
	OrderID     string
	Status      string
	FilledPrice float64
	FilledSize  float64
}
