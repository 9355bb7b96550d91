package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

type stubTrader struct {
	intents []domain.OrderIntent
	result  domain.OrderResult
	err     error
}

func (s *stubTrader) SubmitOrder(_ context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	s.intents = append(s.intents, intent)
	if s.err != nil {
		return domain.OrderResult{}, s.err
	}
	return s.result, nil
}

type stubAlerter struct {
	events []string
}

func (s *stubAlerter) Notify(_ context.Context, event, _, _ string) error {
	s.events = append(s.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// entriesAt builds ready entry prices with the given effective values.
func entriesAt(long, short float64) domain.EntryPrices {
	return domain.EntryPrices{
		LongEntry:  domain.PriceQuote{Venue: "drift", Direction: domain.DirectionLong, EffectivePrice: long},
		ShortEntry: domain.PriceQuote{Venue: "drift", Direction: domain.DirectionShort, EffectivePrice: short},
	}
}

func firedLong() domain.SpreadSignal {
	return domain.SpreadSignal{
		Asset:         "SOL",
		Direction:     domain.DirectionLong,
		SpreadPercent: 0.5,
		Threshold:     0.44444,
		Fired:         true,
		ComputedAt:    time.Now(),
	}
}

func TestPairedSubmitBothLegs(t *testing.T) {
	drift := &stubTrader{result: domain.OrderResult{OrderID: "d-1", Status: "filled", FilledPrice: 100, FilledSize: 1}}
	mango := &stubTrader{result: domain.OrderResult{OrderID: "m-1", Status: "filled", FilledPrice: 100.5, FilledSize: 1}}
	exec := NewPairedExecutor(drift, mango, nil, 100, testLogger())

	in := Input{
		Asset:   "SOL",
		Signals: []domain.SpreadSignal{firedLong()},
		Entries: entriesAt(100.0, 99.9),
	}

	out, err := exec.Reconcile(context.Background(), in)
	require.NoError(t, err)

	// $100 at entry 100.00 -> 1.0 base units on each leg, opposite sides.
	require.Len(t, drift.intents, 1)
	require.Len(t, mango.intents, 1)
	assert.Equal(t, 1.0, drift.intents[0].Size)
	assert.Equal(t, domain.OrderSideBuy, drift.intents[0].Side)
	assert.Equal(t, "SOL-PERP", drift.intents[0].Market)
	assert.Equal(t, 1.0, mango.intents[0].Size)
	assert.Equal(t, domain.OrderSideSell, mango.intents[0].Side)
	assert.Equal(t, "SOL/USD", mango.intents[0].Market)
	assert.Equal(t, domain.OrderKindMarket, drift.intents[0].Kind)

	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionPairedSubmit, out.Events[0].Type)
	assert.Len(t, out.Fills, 2)
}

func TestPairedShortDirectionSides(t *testing.T) {
	drift := &stubTrader{result: domain.OrderResult{OrderID: "d-1"}}
	mango := &stubTrader{result: domain.OrderResult{OrderID: "m-1"}}
	exec := NewPairedExecutor(drift, mango, nil, 100, testLogger())

	sig := firedLong()
	sig.Direction = domain.DirectionShort

	_, err := exec.Reconcile(context.Background(), Input{
		Asset:   "SOL",
		Signals: []domain.SpreadSignal{sig},
		Entries: entriesAt(100.1, 99.9),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderSideSell, drift.intents[0].Side)
	assert.Equal(t, domain.OrderSideBuy, mango.intents[0].Side)
}

func TestPairedSkipsUnfiredSignals(t *testing.T) {
	drift := &stubTrader{}
	mango := &stubTrader{}
	exec := NewPairedExecutor(drift, mango, nil, 100, testLogger())

	sig := firedLong()
	sig.Fired = false
	sig.Reason = "below threshold"

	out, err := exec.Reconcile(context.Background(), Input{
		Asset:   "SOL",
		Signals: []domain.SpreadSignal{sig},
		Entries: entriesAt(100, 100),
	})
	require.NoError(t, err)
	assert.Empty(t, drift.intents)
	assert.Empty(t, mango.intents)
	assert.Empty(t, out.Events)
}

func TestPartialExecutionAlerted(t *testing.T) {
	drift := &stubTrader{result: domain.OrderResult{OrderID: "d-1", FilledSize: 1}}
	mango := &stubTrader{err: errors.New("insufficient balance")}
	alerter := &stubAlerter{}
	exec := NewPairedExecutor(drift, mango, alerter, 100, testLogger())

	out, err := exec.Reconcile(context.Background(), Input{
		Asset:   "SOL",
		Signals: []domain.SpreadSignal{firedLong()},
		Entries: entriesAt(100, 100),
	})
	require.ErrorIs(t, err, domain.ErrPartialExecution)

	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.ActionPartialExecution, out.Events[0].Type)
	assert.Equal(t, "drift", out.Events[0].Detail["filled_venue"])
	assert.Equal(t, []string{"partial_execution"}, alerter.events)
	assert.Len(t, out.Fills, 1)
}

func TestBothLegsFailedIsOrdinaryFailure(t *testing.T) {
	drift := &stubTrader{err: errors.New("down")}
	mango := &stubTrader{err: errors.New("down")}
	alerter := &stubAlerter{}
	exec := NewPairedExecutor(drift, mango, alerter, 100, testLogger())

	out, err := exec.Reconcile(context.Background(), Input{
		Asset:   "SOL",
		Signals: []domain.SpreadSignal{firedLong()},
		Entries: entriesAt(100, 100),
	})
	require.NoError(t, err)
	assert.Empty(t, out.Events, "nothing went out, next cycle retries")
	assert.Empty(t, alerter.events)
}
