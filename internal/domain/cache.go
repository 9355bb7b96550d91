package domain

import (
	"context"
	"time"
)

// EngineStatus is a summary of the decision loop's current state, mirrored
// into the status cache once per cycle for the HTTP API and dashboards.
type EngineStatus struct {
	Mode           string
	Asset          string
	LongEntry      float64
	ShortEntry     float64
	VenueBBid      float64
	VenueBAsk      float64
	NetExposure    float64
	LongDiff       float64
	ShortDiff      float64
	CycleCount     int64
	LastCycleAt    time.Time
	LastCycleError string
}

// StatusCache mirrors live engine state into a shared cache. It is
// advisory: the decision loop never reads it back, so a cache outage must
// not affect trading.
type StatusCache interface {
	SetStatus(ctx context.Context, status EngineStatus) error
	GetStatus(ctx context.Context, asset string) (EngineStatus, error)
	SetPrice(ctx context.Context, venue, market string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, venue, market string) (float64, time.Time, error)
}
