// Package metrics exposes the engine's operational gauges and counters in
// Prometheus format, served on /metrics by the status API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine publishes. One instance is shared
// by all loops; collectors are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	accountValue  *prometheus.GaugeVec
	assetBalance  *prometheus.GaugeVec
	netExposure   *prometheus.GaugeVec
	spreadDiff    *prometheus.GaugeVec
	cycleDuration *prometheus.HistogramVec

	actionsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
}

// New creates the collector set on a dedicated registry, so the handler only
// serves engine metrics and not the default Go runtime set twice.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		accountValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drifting",
			Name:      "account_value_usd",
			Help:      "Total account value per venue in quote units.",
		}, []string{"venue"}),

		assetBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drifting",
			Name:      "asset_balance_usd",
			Help:      "Balance value per venue and token in quote units.",
		}, []string{"venue", "token"}),

		netExposure: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drifting",
			Name:      "net_exposure_usd",
			Help:      "Signed net position per asset across both venues.",
		}, []string{"asset"}),

		spreadDiff: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drifting",
			Name:      "spread_diff_percent",
			Help:      "Latest spread percentage per asset and direction.",
		}, []string{"asset", "direction"}),

		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "drifting",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one reconciliation cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"loop"}),

		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drifting",
			Name:      "actions_total",
			Help:      "Journaled engine actions by type.",
		}, []string{"type"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drifting",
			Name:      "errors_total",
			Help:      "Cycle errors by loop.",
		}, []string{"loop"}),
	}
}

// Registry returns the underlying registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetAccountValue records a venue's total account value.
func (m *Metrics) SetAccountValue(venue string, value float64) {
	m.accountValue.WithLabelValues(venue).Set(value)
}

// SetAssetBalance records one token balance on a venue.
func (m *Metrics) SetAssetBalance(venue, token string, value float64) {
	m.assetBalance.WithLabelValues(venue, token).Set(value)
}

// SetNetExposure records the signed net exposure for an asset.
func (m *Metrics) SetNetExposure(asset string, value float64) {
	m.netExposure.WithLabelValues(asset).Set(value)
}

// SetSpreadDiff records the latest spread percentage for one direction.
func (m *Metrics) SetSpreadDiff(asset, direction string, value float64) {
	m.spreadDiff.WithLabelValues(asset, direction).Set(value)
}

// ObserveCycle records one cycle's wall time for a loop.
func (m *Metrics) ObserveCycle(loop string, d time.Duration) {
	m.cycleDuration.WithLabelValues(loop).Observe(d.Seconds())
}

// IncAction counts a journaled action by type.
func (m *Metrics) IncAction(actionType string) {
	m.actionsTotal.WithLabelValues(actionType).Inc()
}

// IncError counts a cycle error for a loop.
func (m *Metrics) IncError(loop string) {
	m.errorsTotal.WithLabelValues(loop).Inc()
}
