package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

type stubDriftPos struct {
	size float64
}

func (s *stubDriftPos) GetPositionSize(_ context.Context, _ string) (float64, error) {
	return s.size, nil
}

type stubHedgeVenue struct {
	positions map[string]float64
	book      domain.OrderbookSnapshot
	open      []domain.ResidentOrder

	placed    []domain.OrderIntent
	modified  []string
	cancelled []string
	cancelAll []string
}

func (s *stubHedgeVenue) GetPositions(_ context.Context) (map[string]float64, error) {
	return s.positions, nil
}

func (s *stubHedgeVenue) GetOrderbook(_ context.Context, _ string) (domain.OrderbookSnapshot, error) {
	return s.book, nil
}

func (s *stubHedgeVenue) GetOpenOrders(_ context.Context, _ string) ([]domain.ResidentOrder, error) {
	return s.open, nil
}

func (s *stubHedgeVenue) PlaceOrder(_ context.Context, intent domain.OrderIntent) (domain.ResidentOrder, error) {
	s.placed = append(s.placed, intent)
	return domain.ResidentOrder{
		ID:       "placed-1",
		Market:   intent.Market,
		Side:     intent.Side,
		Price:    intent.Price,
		Size:     intent.Size,
		PlacedAt: time.Now(),
	}, nil
}

func (s *stubHedgeVenue) ModifyOrder(_ context.Context, orderID string, _, _ float64) error {
	s.modified = append(s.modified, orderID)
	return nil
}

func (s *stubHedgeVenue) CancelOrder(_ context.Context, orderID string) error {
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

func (s *stubHedgeVenue) CancelAllOrders(_ context.Context, market string) error {
	s.cancelAll = append(s.cancelAll, market)
	return nil
}

func solBook() domain.OrderbookSnapshot {
	return domain.OrderbookSnapshot{
		Market: "SOL/USD",
		Bids: []domain.PriceLevel{
			{Price: 20, Size: 0.9},
			{Price: 19.8, Size: 1.0},
		},
		Asks: []domain.PriceLevel{
			{Price: 20.1, Size: 0.5},
			{Price: 20.2, Size: 2.0},
		},
		Timestamp: time.Now(),
	}
}

func newHedger(drift *stubDriftPos, venue *stubHedgeVenue) *RestingHedger {
	return NewRestingHedger(drift, venue, NewDebounce(5*time.Second),
		map[string]float64{"SOL": 0.5}, testLogger())
}

func TestPickPriceDepthWalk(t *testing.T) {
	levels := []domain.PriceLevel{{Price: 20, Size: 0.9}, {Price: 19.8, Size: 1.0}}

	// size/3 = 0.4: the first level's 0.9 already covers it.
	price, ok := PickPrice(levels, 1.2)
	require.True(t, ok)
	assert.Equal(t, 20.0, price)

	// size/3 = 1.0: needs the second level's cumulative 1.9.
	price, ok = PickPrice(levels, 3.0)
	require.True(t, ok)
	assert.Equal(t, 19.8, price)
}

func TestPickPriceThinBookFallsBack(t *testing.T) {
	levels := []domain.PriceLevel{{Price: 20, Size: 0.1}, {Price: 19.8, Size: 0.1}}

	price, ok := PickPrice(levels, 30)
	require.True(t, ok)
	assert.Equal(t, 20.0, price, "thin book falls back to the best level")
}

func TestPickPriceEmptyBook(t *testing.T) {
	_, ok := PickPrice(nil, 1)
	assert.False(t, ok)
}

func TestHedgePlacesPostOnlyOrder(t *testing.T) {
	// Combined delta -1.2 SOL: net short, buy 1.2 at the bid side.
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{book: solBook()}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	require.Len(t, venue.placed, 1)
	intent := venue.placed[0]
	assert.Equal(t, domain.OrderSideBuy, intent.Side)
	assert.Equal(t, 20.0, intent.Price)
	assert.Equal(t, 1.2, intent.Size)
	assert.True(t, intent.PostOnly)
	assert.Equal(t, "SOL/USD", intent.Market)

	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionHedgePlace, out.Events[0].Type)
}

func TestHedgeBelowMinChangeDoesNothing(t *testing.T) {
	drift := &stubDriftPos{size: -0.3}
	venue := &stubHedgeVenue{book: solBook()}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)
	assert.Empty(t, venue.placed)
	assert.Empty(t, out.Events)
}

func TestHedgeCancelAllOnDuplicatedOrders(t *testing.T) {
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{
		book: solBook(),
		open: []domain.ResidentOrder{
			{ID: "a", Market: "SOL/USD", Side: domain.OrderSideBuy, Price: 19.9, Size: 1},
			{ID: "b", Market: "SOL/USD", Side: domain.OrderSideSell, Price: 20.3, Size: 1},
		},
	}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	assert.Equal(t, []string{"SOL/USD"}, venue.cancelAll)
	// After cancel-all the placement logic runs against an empty book state.
	require.Len(t, venue.placed, 1)

	require.Len(t, out.Events, 2)
	assert.Equal(t, domain.ActionHedgeCancelAll, out.Events[0].Type)
	assert.Equal(t, domain.ActionHedgePlace, out.Events[1].Type)
}

func TestHedgeCancelsWrongSideOrder(t *testing.T) {
	drift := &stubDriftPos{size: -1.2} // desired side: buy
	venue := &stubHedgeVenue{
		book: solBook(),
		open: []domain.ResidentOrder{
			{ID: "stale", Market: "SOL/USD", Side: domain.OrderSideSell, Price: 20.3, Size: 1},
		},
	}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	assert.Equal(t, []string{"stale"}, venue.cancelled)
	assert.Empty(t, venue.placed, "placement waits for the next cycle")
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionHedgeCancel, out.Events[0].Type)
}

func TestHedgeModifiesStalePrice(t *testing.T) {
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{
		book: solBook(),
		open: []domain.ResidentOrder{
			{ID: "resting", Market: "SOL/USD", Side: domain.OrderSideBuy, Price: 19.5, Size: 1.2},
		},
	}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	assert.Equal(t, []string{"resting"}, venue.modified)
	assert.Empty(t, venue.cancelled)
	assert.Empty(t, venue.placed)
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionHedgeModify, out.Events[0].Type)
}

func TestHedgeModifiesStaleSize(t *testing.T) {
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{
		book: solBook(),
		open: []domain.ResidentOrder{
			{ID: "resting", Market: "SOL/USD", Side: domain.OrderSideBuy, Price: 20, Size: 0.7},
		},
	}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	assert.Equal(t, []string{"resting"}, venue.modified)
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionHedgeModify, out.Events[0].Type)
}

func TestHedgeLeavesCorrectOrderAlone(t *testing.T) {
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{
		book: solBook(),
		open: []domain.ResidentOrder{
			{ID: "resting", Market: "SOL/USD", Side: domain.OrderSideBuy, Price: 20, Size: 1.2},
		},
	}
	h := newHedger(drift, venue)

	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	assert.Empty(t, venue.modified)
	assert.Empty(t, venue.cancelled)
	assert.Empty(t, venue.placed)
	assert.Empty(t, out.Events)
}

func TestHedgeDebounceSuppressesReplacement(t *testing.T) {
	drift := &stubDriftPos{size: -1.2}
	venue := &stubHedgeVenue{book: solBook()}
	h := newHedger(drift, venue)

	// First cycle places and records the debounce entry.
	_, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)
	require.Len(t, venue.placed, 1)

	// Second cycle: the venue listing does not yet show the order, but the
	// fresh debounce entry must suppress a duplicate.
	out, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)
	assert.Len(t, venue.placed, 1)
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionHedgeDebounced, out.Events[0].Type)
}

func TestHedgeSellSideUsesAsks(t *testing.T) {
	// Combined delta +1.2 SOL: net long, sell at the ask side.
	drift := &stubDriftPos{size: 2.0}
	venue := &stubHedgeVenue{
		positions: map[string]float64{"SOL/USD": -0.8},
		book:      solBook(),
	}
	h := newHedger(drift, venue)

	_, err := h.Reconcile(context.Background(), Input{Asset: "SOL"})
	require.NoError(t, err)

	require.Len(t, venue.placed, 1)
	intent := venue.placed[0]
	assert.Equal(t, domain.OrderSideSell, intent.Side)
	// size/3 = 0.4: first ask level's 0.5 covers it.
	assert.Equal(t, 20.1, intent.Price)
	assert.InDelta(t, 1.2, intent.Size, 1e-9)
}
