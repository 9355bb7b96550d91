package drift

import (
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// markPriceResponse is the wire format of GET /v1/markets/{market}/markPrice.
type markPriceResponse struct {
	Market    string  `json:"market"`
	MarkPrice float64 `json:"markPrice,string"`
	Ts        int64   `json:"ts"` // unix milliseconds
}

// slippageResponse is the wire format of GET /v1/markets/{market}/slippage.
// Values are fractional, e.g. 0.0005 for 5 bps.
type slippageResponse struct {
	Market        string  `json:"market"`
	LongSlippage  float64 `json:"longSlippage,string"`
	ShortSlippage float64 `json:"shortSlippage,string"`
}

// orderRequest is the wire format of POST /v1/orders.
type orderRequest struct {
	ClientID   string `json:"clientId"`
	Market     string `json:"market"`
	Side       string `json:"side"`      // "buy" | "sell"
	OrderType  string `json:"orderType"` // "market" | "limit"
	Size       string `json:"size"`      // base units, decimal string
	Price      string `json:"price,omitempty"`
	SubAccount string `json:"subAccount,omitempty"`
}

// orderResponse is the wire format of a successful order submission.
type orderResponse struct {
	OrderID     string  `json:"orderId"`
	Status      string  `json:"status"` // "filled" | "open" | "rejected"
	FilledPrice float64 `json:"filledPrice,string"`
	FilledSize  float64 `json:"filledSize,string"`
}

// positionResponse is the wire format of GET /v1/positions/{market}.
type positionResponse struct {
	Market        string  `json:"market"`
	BaseSize      float64 `json:"baseSize,string"`
	NotionalValue float64 `json:"notionalValue,string"` // signed, quote units
	EntryPrice    float64 `json:"entryPrice,string"`
}

// accountResponse is the wire format of GET /v1/account.
type accountResponse struct {
	TotalValue      float64 `json:"totalValue,string"`
	FreeCollateral  float64 `json:"freeCollateral,string"`
	MaintenanceReq  float64 `json:"maintenanceReq,string"`
	UnrealizedPnl   float64 `json:"unrealizedPnl,string"`
	MarginFraction  float64 `json:"marginFraction,string"`
	OpenOrdersCount int     `json:"openOrdersCount"`
}

// errorResponse is the wire format of a gateway error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wsCommand is a subscription command sent over the WebSocket.
type wsCommand struct {
	Type    string   `json:"type"` // "subscribe" | "unsubscribe"
	Channel string   `json:"channel"`
	Markets []string `json:"markets"`
}

// wsMarkPriceMessage is a markPrice channel message from the WebSocket.
type wsMarkPriceMessage struct {
	Channel   string  `json:"channel"`
	Market    string  `json:"market"`
	MarkPrice float64 `json:"markPrice,string"`
	Ts        int64   `json:"ts"` // unix milliseconds
}

// toDomainMarkPrice converts a wire mark-price message to the domain type.
func (m *wsMarkPriceMessage) toDomainMarkPrice() domain.MarkPriceUpdate {
	return domain.MarkPriceUpdate{
		Market:    m.Market,
		RawPrice:  m.MarkPrice,
		Timestamp: time.UnixMilli(m.Ts),
	}
}
