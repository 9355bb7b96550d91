package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is an L2 snapshot of bids and asks for one market on the
// mango venue. Bids are sorted best (highest) first, asks best (lowest)
// first.
type OrderbookSnapshot struct {
	Market    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the top bid price, or 0 when the book is empty.
func (s OrderbookSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the top ask price, or 0 when the book is empty.
func (s OrderbookSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 0
	}
	return s.Asks[0].Price
}

// SideLevels returns the book side a resting order of the given side would
// join: bids for a buy, asks for a sell.
func (s OrderbookSnapshot) SideLevels(side OrderSide) []PriceLevel {
	if side == OrderSideBuy {
		return s.Bids
	}
	return s.Asks
}
