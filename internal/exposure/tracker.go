// Package exposure tracks the signed net position per asset, aggregated
// across both venues, and classifies it against the configured cap.
package exposure

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/domain"
)

// DriftPositionSource returns the signed notional value (quote units) of the
// drift position in a market.
type DriftPositionSource interface {
	GetPositionValue(ctx context.Context, market string) (float64, error)
}

// MangoPositionSource returns the signed base-unit position per mango market.
type MangoPositionSource interface {
	GetPositions(ctx context.Context) (map[string]float64, error)
}

// Tracker aggregates net exposure per asset. Exposure is always re-queried
// from venue account state; it is never advanced locally, since positions can
// also move from fills the engine did not initiate.
type Tracker struct {
	drift   DriftPositionSource
	mango   MangoPositionSource
	maxSize float64

	mu     sync.RWMutex
	states map[string]domain.ExposureState
}

// NewTracker creates an exposure tracker with the given cap in quote units.
func NewTracker(drift DriftPositionSource, mango MangoPositionSource, maxSize float64) *Tracker {
	return &Tracker{
		drift:   drift,
		mango:   mango,
		maxSize: maxSize,
		states:  make(map[string]domain.ExposureState),
	}
}

// Refresh re-queries both venues for the asset's position, joins the results,
// and returns the updated state. markPrice converts the mango base-unit
// position into quote units; both venue calls run concurrently.
func (t *Tracker) Refresh(ctx context.Context, asset string, markPrice float64) (domain.ExposureState, error) {
	var (
		driftValue float64
		mangoBase  float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := t.drift.GetPositionValue(gctx, config.DriftMarket(asset))
		if err != nil {
			return fmt.Errorf("drift position: %w", err)
		}
		driftValue = v
		return nil
	})
	g.Go(func() error {
		positions, err := t.mango.GetPositions(gctx)
		if err != nil {
			return fmt.Errorf("mango positions: %w", err)
		}
		mangoBase = positions[config.MangoMarket(asset)]
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.ExposureState{}, fmt.Errorf("exposure: refresh %s: %w", asset, err)
	}

	state := domain.ExposureState{
		Asset:   asset,
		NetSize: driftValue + mangoBase*markPrice,
		MaxSize: t.maxSize,
	}

	t.mu.Lock()
	t.states[asset] = state
	t.mu.Unlock()

	return state, nil
}

// NetExposure returns the last refreshed signed net size for the asset in
// quote units. Zero before the first Refresh.
func (t *Tracker) NetExposure(asset string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[asset].NetSize
}

// CanOpen reports whether opening in the given direction is permitted by the
// cap. Reducing trades are always permitted.
func (t *Tracker) CanOpen(direction domain.Direction, asset string) bool {
	t.mu.RLock()
	state, ok := t.states[asset]
	t.mu.RUnlock()

	if !ok {
		// Never refreshed: treat as flat with the configured cap.
		state = domain.ExposureState{Asset: asset, MaxSize: t.maxSize}
	}
	return state.CanOpen(direction)
}
