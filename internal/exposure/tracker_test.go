package exposure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/domain"
)

type stubDrift struct {
	value float64
	err   error
}

func (s *stubDrift) GetPositionValue(_ context.Context, _ string) (float64, error) {
	return s.value, s.err
}

type stubMango struct {
	positions map[string]float64
	err       error
}

func (s *stubMango) GetPositions(_ context.Context) (map[string]float64, error) {
	return s.positions, s.err
}

func TestRefreshAggregatesBothVenues(t *testing.T) {
	drift := &stubDrift{value: 500}
	mango := &stubMango{positions: map[string]float64{"SOL/USD": -10}}
	tracker := NewTracker(drift, mango, 3000)

	state, err := tracker.Refresh(context.Background(), "SOL", 20)
	require.NoError(t, err)

	// 500 quote on drift plus -10 base * 20 = -200 quote on mango.
	assert.Equal(t, 300.0, state.NetSize)
	assert.Equal(t, 300.0, tracker.NetExposure("SOL"))
}

func TestRefreshVenueFailure(t *testing.T) {
	drift := &stubDrift{err: errors.New("boom")}
	mango := &stubMango{}
	tracker := NewTracker(drift, mango, 3000)

	_, err := tracker.Refresh(context.Background(), "SOL", 20)
	assert.Error(t, err)
}

func TestCanOpenRespectsCap(t *testing.T) {
	drift := &stubDrift{value: 3000}
	mango := &stubMango{}
	tracker := NewTracker(drift, mango, 3000)

	_, err := tracker.Refresh(context.Background(), "SOL", 20)
	require.NoError(t, err)

	// At the long cap: opening long is blocked, reducing short is allowed.
	assert.False(t, tracker.CanOpen(domain.DirectionLong, "SOL"))
	assert.True(t, tracker.CanOpen(domain.DirectionShort, "SOL"))
}

func TestCanOpenReduceAlwaysAllowed(t *testing.T) {
	drift := &stubDrift{value: -5000} // beyond the short cap
	mango := &stubMango{}
	tracker := NewTracker(drift, mango, 3000)

	_, err := tracker.Refresh(context.Background(), "SOL", 20)
	require.NoError(t, err)

	assert.False(t, tracker.CanOpen(domain.DirectionShort, "SOL"))
	assert.True(t, tracker.CanOpen(domain.DirectionLong, "SOL"), "reducing trades are never blocked")
}

func TestCanOpenBeforeFirstRefresh(t *testing.T) {
	tracker := NewTracker(&stubDrift{}, &stubMango{}, 3000)

	// Flat until refreshed: both directions open.
	assert.True(t, tracker.CanOpen(domain.DirectionLong, "SOL"))
	assert.True(t, tracker.CanOpen(domain.DirectionShort, "SOL"))
}
