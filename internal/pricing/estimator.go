package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// SlippageSource supplies fractional slippage estimates for entering long and
// short in a market. Implemented by the drift REST client.
type SlippageSource interface {
	GetSlippage(ctx context.Context, market string) (long, short float64, err error)
}

// Estimator turns a raw mark price into direction-specific effective entry
// prices. Slippage always worsens the price against the trader: a long entry
// pays above the mark, a short entry receives below it.
type Estimator struct {
	slippage SlippageSource
}

// NewEstimator creates an estimator backed by the given slippage source.
func NewEstimator(slippage SlippageSource) *Estimator {
	return &Estimator{slippage: slippage}
}

// Effective applies a fractional slippage to a mark price for one direction.
func Effective(direction domain.Direction, markPrice, slippage float64) float64 {
	if direction == domain.DirectionLong {
		return markPrice * (1 + slippage)
	}
	return markPrice * (1 - slippage)
}

// EntryPrices computes both effective entry prices for a market at the given
// mark price. A zero mark price yields not-ready entries without querying the
// venue.
func (e *Estimator) EntryPrices(ctx context.Context, market string, markPrice float64) (domain.EntryPrices, error) {
	if markPrice <= 0 {
		return domain.EntryPrices{}, nil
	}

	longSlip, shortSlip, err := e.slippage.GetSlippage(ctx, market)
	if err != nil {
		return domain.EntryPrices{}, fmt.Errorf("pricing: slippage for %s: %w", market, err)
	}

	now := time.Now()
	return domain.EntryPrices{
		LongEntry: domain.PriceQuote{
			Venue:          "drift",
			Market:         market,
			Direction:      domain.DirectionLong,
			RawPrice:       markPrice,
			EffectivePrice: Effective(domain.DirectionLong, markPrice, longSlip),
			UpdatedAt:      now,
		},
		ShortEntry: domain.PriceQuote{
			Venue:          "drift",
			Market:         market,
			Direction:      domain.DirectionShort,
			RawPrice:       markPrice,
			EffectivePrice: Effective(domain.DirectionShort, markPrice, shortSlip),
			UpdatedAt:      now,
		},
	}, nil
}
