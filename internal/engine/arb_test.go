package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
	"github.com/01protocol/drifting-01/internal/pricing"
	"github.com/01protocol/drifting-01/internal/reconcile"
	"github.com/01protocol/drifting-01/internal/signal"
)

// ---------------------------------------------------------------------------
// Stub collaborators
// ---------------------------------------------------------------------------

type stubEstimator struct {
	entries domain.EntryPrices
}

func (s *stubEstimator) EntryPrices(_ context.Context, _ string, _ float64) (domain.EntryPrices, error) {
	return s.entries, nil
}

type stubExposure struct {
	state domain.ExposureState
}

func (s *stubExposure) Refresh(_ context.Context, _ string, _ float64) (domain.ExposureState, error) {
	return s.state, nil
}

func (s *stubExposure) CanOpen(d domain.Direction, _ string) bool {
	return s.state.CanOpen(d)
}

type stubQuotes struct {
	book domain.OrderbookSnapshot
}

func (s *stubQuotes) GetOrderbook(_ context.Context, _ string) (domain.OrderbookSnapshot, error) {
	return s.book, nil
}

type recordingReconciler struct {
	inputs  []reconcile.Input
	outcome reconcile.Outcome
}

func (r *recordingReconciler) Name() string { return "recording" }

func (r *recordingReconciler) Reconcile(_ context.Context, in reconcile.Input) (reconcile.Outcome, error) {
	r.inputs = append(r.inputs, in)
	return r.outcome, nil
}

type memActionStore struct {
	events []domain.ActionEvent
}

func (m *memActionStore) Log(_ context.Context, ev domain.ActionEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memActionStore) List(_ context.Context, _ domain.ListOpts) ([]domain.ActionEvent, error) {
	return m.events, nil
}

func (m *memActionStore) ListBefore(_ context.Context, _ time.Time) ([]domain.ActionEvent, error) {
	return nil, nil
}

func (m *memActionStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// ---------------------------------------------------------------------------

func readyEntries(long, short float64) domain.EntryPrices {
	return domain.EntryPrices{
		LongEntry:  domain.PriceQuote{Venue: "drift", Direction: domain.DirectionLong, EffectivePrice: long},
		ShortEntry: domain.PriceQuote{Venue: "drift", Direction: domain.DirectionShort, EffectivePrice: short},
	}
}

func solBook(bid, ask float64) domain.OrderbookSnapshot {
	return domain.OrderbookSnapshot{
		Market:    "SOL/USD",
		Bids:      []domain.PriceLevel{{Price: bid, Size: 10}},
		Asks:      []domain.PriceLevel{{Price: ask, Size: 10}},
		Timestamp: time.Now(),
	}
}

func newArbCycle(t *testing.T, marks MarkPriceSource, est EntryEstimator, expo *stubExposure, quotes MangoQuoteSource, rec reconcile.Reconciler, store domain.ActionStore) *ArbCycle {
	t.Helper()
	return NewArbCycle(ArbCycleConfig{
		Asset:      "SOL",
		Mode:       "arb",
		Marks:      marks,
		Estimator:  est,
		Exposure:   expo,
		Signals:    signal.NewEngine(expo, 0.44444, testLogger()),
		Reconciler: rec,
		Mango:      quotes,
		Actions:    store,
		Logger:     testLogger(),
	})
}

func TestArbCycleSkipsWithoutMarkPrice(t *testing.T) {
	rec := &recordingReconciler{}
	expo := &stubExposure{state: domain.ExposureState{Asset: "SOL", MaxSize: 3000}}
	cycle := newArbCycle(t, pricing.NewRegister(), &stubEstimator{}, expo, &stubQuotes{}, rec, nil)

	require.NoError(t, cycle.Run(context.Background()))
	assert.Empty(t, rec.inputs, "no decision may happen before the first price event")
}

func TestArbCycleFiresSignalThroughReconciler(t *testing.T) {
	marks := pricing.NewRegister()
	marks.Store(domain.MarkPriceUpdate{Market: "SOL-PERP", RawPrice: 100, Timestamp: time.Now()})

	est := &stubEstimator{entries: readyEntries(100.0, 99.9)}
	expo := &stubExposure{state: domain.ExposureState{Asset: "SOL", MaxSize: 3000}}
	quotes := &stubQuotes{book: solBook(100.5, 101.0)} // longDiff = 0.5% > threshold
	rec := &recordingReconciler{}
	store := &memActionStore{}

	cycle := newArbCycle(t, marks, est, expo, quotes, rec, store)
	require.NoError(t, cycle.Run(context.Background()))

	require.Len(t, rec.inputs, 1)
	sigs := rec.inputs[0].Signals
	require.Len(t, sigs, 2)
	assert.True(t, sigs[0].Fired)
	assert.Equal(t, domain.DirectionLong, sigs[0].Direction)

	// The fired signal lands in the journal.
	require.Len(t, store.events, 1)
	assert.Equal(t, domain.ActionSignalFired, store.events[0].Type)
}

func TestArbCycleJournalsReconcilerEvents(t *testing.T) {
	marks := pricing.NewRegister()
	marks.Store(domain.MarkPriceUpdate{Market: "SOL-PERP", RawPrice: 100, Timestamp: time.Now()})

	est := &stubEstimator{entries: readyEntries(100.0, 99.9)}
	expo := &stubExposure{state: domain.ExposureState{Asset: "SOL", MaxSize: 3000}}
	quotes := &stubQuotes{book: solBook(100.5, 101.0)}
	rec := &recordingReconciler{outcome: reconcile.Outcome{
		Events: []domain.ActionEvent{{ID: "ev-1", Type: domain.ActionPairedSubmit, Asset: "SOL"}},
	}}
	store := &memActionStore{}

	cycle := newArbCycle(t, marks, est, expo, quotes, rec, store)
	require.NoError(t, cycle.Run(context.Background()))

	require.Len(t, store.events, 2)
	assert.Equal(t, domain.ActionSignalFired, store.events[0].Type)
	assert.Equal(t, domain.ActionPairedSubmit, store.events[1].Type)
}

func TestArbCycleQuietMarketNoActions(t *testing.T) {
	marks := pricing.NewRegister()
	marks.Store(domain.MarkPriceUpdate{Market: "SOL-PERP", RawPrice: 100, Timestamp: time.Now()})

	est := &stubEstimator{entries: readyEntries(100.0, 99.9)}
	expo := &stubExposure{state: domain.ExposureState{Asset: "SOL", MaxSize: 3000}}
	quotes := &stubQuotes{book: solBook(100.1, 100.2)} // longDiff = 0.1%, below threshold
	rec := &recordingReconciler{}
	store := &memActionStore{}

	cycle := newArbCycle(t, marks, est, expo, quotes, rec, store)
	require.NoError(t, cycle.Run(context.Background()))

	require.Len(t, rec.inputs, 1)
	for _, sig := range rec.inputs[0].Signals {
		assert.False(t, sig.Fired)
	}
	assert.Empty(t, store.events, "routine below-threshold cycles stay out of the journal")
}
