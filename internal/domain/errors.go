package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNotReady         = errors.New("price not ready")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOrder     = errors.New("invalid order parameters")
	ErrInsufficientFund = errors.New("insufficient balance")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	// ErrPartialExecution marks a paired submission where one leg succeeded
	// and the other failed, leaving a directional position an operator must
	// flatten manually.
	ErrPartialExecution = errors.New("partial paired execution")
)
