package engine

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01protocol/drifting-01/internal/metrics"
)

type stubDriftAccount struct {
	value float64
	delay time.Duration
}

func (s *stubDriftAccount) GetAccountValue(_ context.Context) (float64, error) {
	time.Sleep(s.delay)
	return s.value, nil
}

type stubMangoAccount struct {
	value    float64
	balances map[string]float64
}

func (s *stubMangoAccount) GetAccountValue(_ context.Context) (float64, error) {
	return s.value, nil
}

func (s *stubMangoAccount) GetBalances(_ context.Context) (map[string]float64, error) {
	return s.balances, nil
}

func gatherMetric(t *testing.T, m *metrics.Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	return nil
}

func TestTelemetryUpdatesGauges(t *testing.T) {
	m := metrics.New()
	cycle := NewTelemetryCycle(
		&stubDriftAccount{value: 1200},
		&stubMangoAccount{value: 800, balances: map[string]float64{"SOL": 150}},
		m, testLogger(),
	)

	require.NoError(t, cycle.Run(context.Background()))

	fam := gatherMetric(t, m, "drifting_account_value_usd")
	require.NotNil(t, fam)
	values := map[string]float64{}
	for _, metric := range fam.GetMetric() {
		values[metric.GetLabel()[0].GetValue()] = metric.GetGauge().GetValue()
	}
	assert.Equal(t, 1200.0, values["drift"])
	assert.Equal(t, 800.0, values["mango"])
}

func TestTelemetryObservesRealCycleDuration(t *testing.T) {
	m := metrics.New()
	cycle := NewTelemetryCycle(
		&stubDriftAccount{value: 1, delay: 50 * time.Millisecond},
		&stubMangoAccount{value: 1},
		m, testLogger(),
	)

	require.NoError(t, cycle.Run(context.Background()))

	fam := gatherMetric(t, m, "drifting_cycle_duration_seconds")
	require.NotNil(t, fam)
	require.Len(t, fam.GetMetric(), 1)

	hist := fam.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.GreaterOrEqual(t, hist.GetSampleSum(), 0.05)
}
