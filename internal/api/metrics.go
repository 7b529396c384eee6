package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver counts backend calls and their latency in a private
// registry, so several clients can coexist in one process.
type MetricsObserver struct {
	registry *prometheus.Registry

	Calls   *prometheus.CounterVec
	Latency *prometheus.HistogramVec
	Retries *prometheus.CounterVec
}

// NewMetricsObserver registers the comply backend metrics.
func NewMetricsObserver() *MetricsObserver {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &MetricsObserver{
		registry: reg,
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comply_backend_calls_total",
			Help: "Backend calls by operation, HTTP status and outcome",
		}, []string{"op", "status", "outcome"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comply_backend_call_duration_seconds",
			Help:    "Backend call latency including retries",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comply_backend_retries_total",
			Help: "Extra attempts made for idempotent backend calls",
		}, []string{"op"}),
	}
}

func (m *MetricsObserver) OnCallComplete(event CallEvent) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !event.Success {
		outcome = event.ErrorCode
	}
	m.Calls.WithLabelValues(event.Operation, strconv.Itoa(event.Status), outcome).Inc()
	m.Latency.WithLabelValues(event.Operation).Observe(float64(event.LatencyMs) / 1000)
	if event.Attempts > 1 {
		m.Retries.WithLabelValues(event.Operation).Add(float64(event.Attempts - 1))
	}
}

// Registry exposes the observer's registry for gathering.
func (m *MetricsObserver) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile dumps the metrics in the text exposition format, for node
// exporter's textfile collector.
func (m *MetricsObserver) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
