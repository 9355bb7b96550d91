package mango

import (
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// orderbookResponse is the wire format of GET /api/markets/{market}/orderbook.
// Levels are [price, size] pairs, best first.
type orderbookResponse struct {
	Market string       `json:"market"`
	Bids   [][2]float64 `json:"bids"`
	Asks   [][2]float64 `json:"asks"`
	Ts     int64        `json:"ts"` // unix milliseconds
}

// toDomainSnapshot converts a wire orderbook to the domain type.
func (r *orderbookResponse) toDomainSnapshot(market string) domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		Market:    market,
		Bids:      make([]domain.PriceLevel, 0, len(r.Bids)),
		Asks:      make([]domain.PriceLevel, 0, len(r.Asks)),
		Timestamp: time.UnixMilli(r.Ts),
	}
	for _, lvl := range r.Bids {
		snap.Bids = append(snap.Bids, domain.PriceLevel{Price: lvl[0], Size: lvl[1]})
	}
	for _, lvl := range r.Asks {
		snap.Asks = append(snap.Asks, domain.PriceLevel{Price: lvl[0], Size: lvl[1]})
	}
	return snap
}

// positionEntry is one element of GET /api/positions.
type positionEntry struct {
	Market   string  `json:"market"`
	BaseSize float64 `json:"baseSize,string"` // signed base units
	Notional float64 `json:"notional,string"` // signed quote units
}

// balanceEntry is one element of GET /api/balances.
type balanceEntry struct {
	Token  string  `json:"token"`
	Amount float64 `json:"amount,string"`
	Value  float64 `json:"value,string"` // quote units
}

// accountResponse is the wire format of GET /api/account.
type accountResponse struct {
	AccountValue   float64 `json:"accountValue,string"`
	FreeCollateral float64 `json:"freeCollateral,string"`
	Leverage       float64 `json:"leverage,string"`
}

// apiOrder is the wire format of one open order.
type apiOrder struct {
	OrderID  string  `json:"orderId"`
	Market   string  `json:"market"`
	Side     string  `json:"side"` // "buy" | "sell"
	Price    float64 `json:"price,string"`
	Size     float64 `json:"size,string"`
	PlacedAt int64   `json:"placedAt"` // unix milliseconds
}

// toDomainResident converts a wire order to a domain resident order.
func (o *apiOrder) toDomainResident() domain.ResidentOrder {
	return domain.ResidentOrder{
		ID:       o.OrderID,
		Market:   o.Market,
		Side:     domain.OrderSide(o.Side),
		Price:    o.Price,
		Size:     o.Size,
		PlacedAt: time.UnixMilli(o.PlacedAt),
	}
}

// orderRequest is the wire format of POST /api/orders.
type orderRequest struct {
	ClientID   string `json:"clientId"`
	Market     string `json:"market"`
	Side       string `json:"side"`      // "buy" | "sell"
	OrderType  string `json:"orderType"` // "limit" | "market"
	Price      string `json:"price,omitempty"`
	Size       string `json:"size"`
	PostOnly   bool   `json:"postOnly,omitempty"`
	SubAccount string `json:"subAccount,omitempty"`
}

// modifyRequest is the wire format of PATCH /api/orders/{id}.
type modifyRequest struct {
	Price string `json:"price"`
	Size  string `json:"size,omitempty"`
}

// orderResponse is the wire format of a successful order submission.
type orderResponse struct {
	OrderID     string  `json:"orderId"`
	Status      string  `json:"status"` // "open" | "filled" | "rejected"
	FilledPrice float64 `json:"filledPrice,string"`
	FilledSize  float64 `json:"filledSize,string"`
}

// errorResponse is the wire format of a gateway error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
