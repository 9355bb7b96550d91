package signal

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

// stubGate permits or denies opening per direction.
type stubGate struct {
	blocked map[domain.Direction]bool
}

func (s *stubGate) CanOpen(d domain.Direction, _ string) bool {
	return !s.blocked[d]
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

func TestComputeDiffs(t *testing.T) {
	entries := entriesAt(100.0, 99.9)
	diffs := ComputeDiffs(entries, 100.5, 100.1)

	assert.InDelta(t, 0.5, diffs.LongDiff, 1e-9)
	assert.InDelta(t, -0.1998, diffs.ShortDiff, 1e-4)
}

func TestStrictThresholdBoundary(t *testing.T) {
	const threshold = 0.44444
	eng := NewEngine(&stubGate{}, threshold, testLogger())
	now := time.Now()

	// Exactly at the boundary: must not fire.
	sig := eng.evaluateDirection("SOL", domain.DirectionLong, 0.44444, now)
	assert.False(t, sig.Fired, "spread equal to threshold must not trigger")
	assert.Equal(t, "below threshold", sig.Reason)

	// A hair above: must fire.
	sig = eng.evaluateDirection("SOL", domain.DirectionLong, 0.44445, now)
	assert.True(t, sig.Fired)
}

func TestThresholdSofteningWhenOppositeCapped(t *testing.T) {
	const threshold = 0.44444
	gate := &stubGate{blocked: map[domain.Direction]bool{domain.DirectionShort: true}}
	eng := NewEngine(gate, threshold, testLogger())

	got, softened := eng.ThresholdFor(domain.DirectionLong, "SOL")
	assert.True(t, softened)
	assert.Equal(t, -0.5*threshold, got)
	assert.Less(t, got, threshold, "softened threshold must be strictly lower")

	// The capped direction itself keeps the normal threshold.
	got, softened = eng.ThresholdFor(domain.DirectionShort, "SOL")
	assert.False(t, softened)
	assert.Equal(t, threshold, got)
}

func TestSoftenedThresholdFiresNegativeSpread(t *testing.T) {
	const threshold = 0.44444
	gate := &stubGate{blocked: map[domain.Direction]bool{domain.DirectionShort: true}}
	eng := NewEngine(gate, threshold, testLogger())

	// longDiff of -0.1% would never fire normally, but beats -0.22222.
	entries := entriesAt(100, 100)
	sigs := eng.Evaluate("SOL", entries, 99.9, 200, time.Now())
	require.Len(t, sigs, 2)

	long := sigs[0]
	assert.Equal(t, domain.DirectionLong, long.Direction)
	assert.True(t, long.Softened)
	assert.True(t, long.Fired)
}

func TestExposureGateBlocksFiring(t *testing.T) {
	gate := &stubGate{blocked: map[domain.Direction]bool{domain.DirectionLong: true}}
	eng := NewEngine(gate, 0.44444, testLogger())

	entries := entriesAt(100, 100)
	sigs := eng.Evaluate("SOL", entries, 100.5, 200, time.Now())
	require.Len(t, sigs, 2)

	assert.False(t, sigs[0].Fired)
	assert.Equal(t, "exposure cap", sigs[0].Reason)
}

func TestDirectionsEvaluatedIndependently(t *testing.T) {
	eng := NewEngine(&stubGate{}, 0.1, testLogger())

	// Prices crossed enough that both directions clear the threshold.
	entries := entriesAt(100, 101)
	sigs := eng.Evaluate("SOL", entries, 100.5, 100.2, time.Now())
	require.Len(t, sigs, 2)

	assert.True(t, sigs[0].Fired)
	assert.True(t, sigs[1].Fired)
}

func TestEvaluateSkipsStaleInputs(t *testing.T) {
	eng := NewEngine(&stubGate{}, 0.44444, testLogger())

	assert.Nil(t, eng.Evaluate("SOL", domain.EntryPrices{}, 100.5, 100.6, time.Now()))
	assert.Nil(t, eng.Evaluate("SOL", entriesAt(100, 100), 0, 100.6, time.Now()))
}
