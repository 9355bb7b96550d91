package domain

import "time"

// SpreadSignal is the outcome of evaluating one arbitrage direction for one
// polling cycle. Fired is true when the spread cleared the (possibly
// softened) threshold and the exposure check passed.
type SpreadSignal struct {
	Asset         string
	Direction     Direction // drift-side direction the signal would open
	SpreadPercent float64
	Threshold     float64
	Softened      bool // threshold was lowered to favor reducing exposure
	Fired         bool
	Reason        string // set when the signal did not fire
	ComputedAt    time.Time
}

// ActionType classifies a journaled engine event.
type ActionType string

const (
	ActionSignalFired      ActionType = "signal_fired"
	ActionForgone          ActionType = "forgone"
	ActionPairedSubmit     ActionType = "paired_submit"
	ActionPartialExecution ActionType = "partial_execution"
	ActionHedgePlace       ActionType = "hedge_place"
	ActionHedgeModify      ActionType = "hedge_modify"
	ActionHedgeCancel      ActionType = "hedge_cancel"
	ActionHedgeCancelAll   ActionType = "hedge_cancel_all"
	ActionHedgeDebounced   ActionType = "hedge_debounced"
)

// ActionEvent is one row of the append-only decision journal. Every fired or
// forgone signal and every order action is recorded so operators can audit
// decisions after the fact.
type ActionEvent struct {
	ID        string
	Type      ActionType
	Asset     string
	Detail    map[string]any
	CreatedAt time.Time
}

// Fill is one executed leg recorded after a successful submission.
type Fill struct {
	ID        string
	Venue     string
	Market    string
	Side      OrderSide
	Price     float64
	Size      float64
	OrderID   string
	CreatedAt time.Time
}
