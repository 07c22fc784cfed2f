package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Bridge call metrics
	BridgeCalls       *prometheus.CounterVec
	BridgeCallLatency *prometheus.HistogramVec

	// Cloud model inventory, refreshed by the model-stats job
	ModelsTotal   prometheus.Gauge
	ModelsEnabled prometheus.Gauge

	// Event stream metrics
	EventSubscribers prometheus.Gauge
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// InitMetrics registers the Prometheus metrics. Safe to call more than once.
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			// Bridge calls by method and outcome (ok, invalid_argument, not_found, error)
			BridgeCalls: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "llmdesk_bridge_calls_total",
				Help: "Total number of bridge calls by method and status",
			}, []string{"method", "status"}),

			BridgeCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "llmdesk_bridge_call_duration_seconds",
				Help:    "Bridge call latency in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			}, []string{"method"}),

			ModelsTotal: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "llmdesk_cloud_llm_models",
				Help: "Number of configured cloud LLM models",
			}),

			ModelsEnabled: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "llmdesk_cloud_llm_models_enabled",
				Help: "Number of enabled cloud LLM models",
			}),

			EventSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "llmdesk_event_subscribers_active",
				Help: "Number of connected change event subscribers",
			}),
		}
	})
	return globalMetrics
}

// GetMetrics returns the global metrics instance, or nil before InitMetrics
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordBridgeCall records a bridge call outcome and its latency
func (m *Metrics) RecordBridgeCall(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.BridgeCalls.WithLabelValues(method, status).Inc()
	m.BridgeCallLatency.WithLabelValues(method).Observe(seconds)
}

// SetModelCounts updates the model inventory gauges
func (m *Metrics) SetModelCounts(total, enabled int64) {
	if m == nil {
		return
	}
	m.ModelsTotal.Set(float64(total))
	m.ModelsEnabled.Set(float64(enabled))
}

// RecordSubscriberConnect records a new event stream subscriber
func (m *Metrics) RecordSubscriberConnect() {
	if m == nil {
		return
	}
	m.EventSubscribers.Inc()
}

// RecordSubscriberDisconnect records an event stream subscriber leaving
func (m *Metrics) RecordSubscriberDisconnect() {
	if m == nil {
		return
	}
	m.EventSubscribers.Dec()
}
