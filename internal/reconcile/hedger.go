package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/01protocol/drifting-01/internal/config"
	"github.com/01protocol/drifting-01/internal/domain"
)

// DriftPositionSizeSource returns the signed base-unit drift position for a
// market.
type DriftPositionSizeSource interface {
	GetPositionSize(ctx context.Context, market string) (float64, error)
}

// HedgeVenue is the mango order-management surface the hedger reconciles
// against. The open-order query is the source of truth for resident orders.
type HedgeVenue interface {
	GetPositions(ctx context.Context) (map[string]float64, error)
	GetOrderbook(ctx context.Context, market string) (domain.OrderbookSnapshot, error)
	GetOpenOrders(ctx context.Context, market string) ([]domain.ResidentOrder, error)
	PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.ResidentOrder, error)
	ModifyOrder(ctx context.Context, orderID string, newPrice, newSize float64) error
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context, market string) error
}

// RestingHedger is the passive strategy: it keeps at most one resting
// post-only order per market on mango, sized to flatten the combined net
// delta across both venues.
type RestingHedger struct {
	drift     DriftPositionSizeSource
	mango     HedgeVenue
	debounce  *Debounce
	minChange map[string]float64 // asset -> minimum base-unit delta to act on
	logger    *slog.Logger
}

var _ Reconciler = (*RestingHedger)(nil)

// NewRestingHedger creates the passive strategy. minChange maps asset symbol
// to the smallest absolute delta worth hedging; smaller deltas are noise.
func NewRestingHedger(drift DriftPositionSizeSource, mango HedgeVenue, debounce *Debounce, minChange map[string]float64, logger *slog.Logger) *RestingHedger {
	return &RestingHedger{
		drift:     drift,
		mango:     mango,
		debounce:  debounce,
		minChange: minChange,
		logger:    logger.With(slog.String("component", "resting_hedger")),
	}
}

// Name implements Reconciler.
func (h *RestingHedger) Name() string { return "hedge" }

// PickPrice walks the given book side accumulating depth until the cumulative
// size covers at least a third of the order, a conservative anti-slippage
// placement. Falls back to the best level when the book is too thin; ok is
// false only for an empty side.
func PickPrice(levels []domain.PriceLevel, size float64) (price float64, ok bool) {
	if len(levels) == 0 {
		return 0, false
	}

	target := size / 3
	var cumulative float64
	for _, lvl := range levels {
		cumulative += lvl.Size
		if cumulative >= target {
			return lvl.Price, true
		}
	}

	return levels[0].Price, true
}

// Reconcile runs one hedging pass for the asset: compute the net delta,
// derive the desired resting order, and converge the venue's resident orders
// toward it with the fewest venue calls.
func (h *RestingHedger) Reconcile(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome

	h.debounce.Prune()

	asset := in.Asset
	driftMarket := config.DriftMarket(asset)
	mangoMarket := config.MangoMarket(asset)

	driftSize, err := h.drift.GetPositionSize(ctx, driftMarket)
	if err != nil {
		return out, fmt.Errorf("reconcile: drift position %s: %w", asset, err)
	}
	positions, err := h.mango.GetPositions(ctx)
	if err != nil {
		return out, fmt.Errorf("reconcile: mango positions: %w", err)
	}

	delta := driftSize + positions[mangoMarket]

	if math.Abs(delta) < h.minChange[asset] {
		return out, nil
	}

	// A negative combined delta means the book is net short: buy to flatten.
	side := domain.OrderSideSell
	if delta < 0 {
		side = domain.OrderSideBuy
	}
	size := math.Abs(delta)

	book, err := h.mango.GetOrderbook(ctx, mangoMarket)
	if err != nil {
		return out, fmt.Errorf("reconcile: orderbook %s: %w", mangoMarket, err)
	}
	price, ok := PickPrice(book.SideLevels(side), size)
	if !ok {
		return out, fmt.Errorf("reconcile: %s: %w: empty book side", mangoMarket, domain.ErrNotReady)
	}

	resident, err := h.mango.GetOpenOrders(ctx, mangoMarket)
	if err != nil {
		return out, fmt.Errorf("reconcile: open orders %s: %w", mangoMarket, err)
	}

	// Recovery from a stuck or duplicated state: more than one resident order
	// must never survive a cycle.
	if len(resident) > 1 {
		if err := h.mango.CancelAllOrders(ctx, mangoMarket); err != nil {
			return out, fmt.Errorf("reconcile: cancel all %s: %w", mangoMarket, err)
		}
		h.logger.Warn("cancelled duplicated resident orders",
			slog.String("market", mangoMarket),
			slog.Int("count", len(resident)))
		out.Events = append(out.Events, h.event(domain.ActionHedgeCancelAll, asset, map[string]any{
			"market": mangoMarket,
			"count":  len(resident),
		}))
		resident = nil
	}

	if len(resident) == 1 {
		existing := resident[0]

		if existing.Side != side {
			// A wrong-direction order must never be left resting.
			if err := h.mango.CancelOrder(ctx, existing.ID); err != nil {
				return out, fmt.Errorf("reconcile: cancel %s: %w", existing.ID, err)
			}
			h.logger.Info("cancelled wrong-side order",
				slog.String("market", mangoMarket),
				slog.String("order_id", existing.ID),
				slog.String("resident_side", string(existing.Side)),
				slog.String("desired_side", string(side)))
			out.Events = append(out.Events, h.event(domain.ActionHedgeCancel, asset, map[string]any{
				"market":   mangoMarket,
				"order_id": existing.ID,
			}))
			// Placement happens on the next cycle with fresh venue state.
			return out, nil
		}

		if existing.Price != price || existing.Size != size {
			if err := h.mango.ModifyOrder(ctx, existing.ID, price, size); err != nil {
				return out, fmt.Errorf("reconcile: modify %s: %w", existing.ID, err)
			}
			h.logger.Info("repriced resting order",
				slog.String("market", mangoMarket),
				slog.String("order_id", existing.ID),
				slog.Float64("old_price", existing.Price),
				slog.Float64("new_price", price),
				slog.Float64("old_size", existing.Size),
				slog.Float64("new_size", size))
			out.Events = append(out.Events, h.event(domain.ActionHedgeModify, asset, map[string]any{
				"market":    mangoMarket,
				"order_id":  existing.ID,
				"old_price": existing.Price,
				"new_price": price,
				"old_size":  existing.Size,
				"new_size":  size,
			}))
		}
		return out, nil
	}

	// No resident order: guard against re-placing before the venue's listing
	// reflects a very recent placement.
	if h.debounce.Fresh(mangoMarket, side) {
		h.logger.Debug("placement debounced",
			slog.String("market", mangoMarket),
			slog.String("side", string(side)))
		out.Events = append(out.Events, h.event(domain.ActionHedgeDebounced, asset, map[string]any{
			"market": mangoMarket,
			"side":   string(side),
		}))
		return out, nil
	}

	placed, err := h.mango.PlaceOrder(ctx, domain.OrderIntent{
		Venue:    "mango",
		Market:   mangoMarket,
		Side:     side,
		Price:    price,
		Size:     size,
		Kind:     domain.OrderKindLimit,
		PostOnly: true,
	})
	if err != nil {
		return out, fmt.Errorf("reconcile: place %s: %w", mangoMarket, err)
	}
	h.debounce.Record(mangoMarket, side)

	h.logger.Info("placed hedge order",
		slog.String("market", mangoMarket),
		slog.String("order_id", placed.ID),
		slog.String("side", string(side)),
		slog.Float64("price", price),
		slog.Float64("size", size),
		slog.Float64("delta", delta))
	out.Events = append(out.Events, h.event(domain.ActionHedgePlace, asset, map[string]any{
		"market":   mangoMarket,
		"order_id": placed.ID,
		"side":     string(side),
		"price":    price,
		"size":     size,
		"delta":    delta,
	}))

	return out, nil
}

// event builds a journal entry for one hedge action.
func (h *RestingHedger) event(kind domain.ActionType, asset string, detail map[string]any) domain.ActionEvent {
	return domain.ActionEvent{
		ID:        uuid.NewString(),
		Type:      kind,
		Asset:     asset,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}
