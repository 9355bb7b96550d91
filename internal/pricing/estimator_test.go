package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

type stubSlippage struct {
	long, short float64
	err         error
	calls       int
}

func (s *stubSlippage) GetSlippage(_ context.Context, _ string) (float64, float64, error) {
	s.calls++
	return s.long, s.short, s.err
}

func TestEffectiveWorsensAgainstTrader(t *testing.T) {
	mark := 100.0
	slip := 0.0005

	long := Effective(domain.DirectionLong, mark, slip)
	short := Effective(domain.DirectionShort, mark, slip)

	assert.GreaterOrEqual(t, long, mark, "long entry must pay at or above mark")
	assert.LessOrEqual(t, short, mark, "short entry must receive at or below mark")
	assert.InDelta(t, 100.05, long, 1e-9)
	assert.InDelta(t, 99.95, short, 1e-9)
}

func TestEffectiveZeroSlippage(t *testing.T) {
	assert.Equal(t, 42.0, Effective(domain.DirectionLong, 42, 0))
	assert.Equal(t, 42.0, Effective(domain.DirectionShort, 42, 0))
}

func TestEntryPrices(t *testing.T) {
	src := &stubSlippage{long: 0.001, short: 0.002}
	est := NewEstimator(src)

	entries, err := est.EntryPrices(context.Background(), "SOL-PERP", 20)
	require.NoError(t, err)

	assert.InDelta(t, 20.02, entries.LongEntry.EffectivePrice, 1e-9)
	assert.InDelta(t, 19.96, entries.ShortEntry.EffectivePrice, 1e-9)
	assert.Equal(t, domain.DirectionLong, entries.LongEntry.Direction)
	assert.Equal(t, "SOL-PERP", entries.LongEntry.Market)
	assert.True(t, entries.Ready())
}

func TestEntryPricesZeroMarkIsNotReady(t *testing.T) {
	src := &stubSlippage{long: 0.001, short: 0.002}
	est := NewEstimator(src)

	entries, err := est.EntryPrices(context.Background(), "SOL-PERP", 0)
	require.NoError(t, err)

	assert.False(t, entries.Ready())
	assert.Zero(t, src.calls, "venue must not be queried for an uninitialized mark price")
}

func TestRegisterNotReadyUntilFirstStore(t *testing.T) {
	reg := NewRegister()

	_, ok := reg.Load()
	assert.False(t, ok)

	reg.Store(domain.MarkPriceUpdate{Market: "SOL-PERP", RawPrice: 19.5, Timestamp: time.Now()})

	got, ok := reg.Load()
	require.True(t, ok)
	assert.Equal(t, 19.5, got.RawPrice)
}

func TestRegisterKeepsLatest(t *testing.T) {
	reg := NewRegister()
	reg.Store(domain.MarkPriceUpdate{RawPrice: 1})
	reg.Store(domain.MarkPriceUpdate{RawPrice: 2})

	got, ok := reg.Load()
	require.True(t, ok)
	assert.Equal(t, 2.0, got.RawPrice)
}
