package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "conesearch"

// Backend Prometheus metrics.
var (
	BackendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Total number of catalog backend calls",
		},
		[]string{"kind", "op", "status"},
	)

	BackendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Catalog backend call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "op"},
	)

	RegistryConstructionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_constructions_total",
			Help:      "Catalog backend constructions by result",
		},
		[]string{"kind", "result"}, // "ok" / "unknown" / "error"
	)
)

var registerBackendOnce sync.Once

// RegisterBackendMetrics registers backend and registry metrics. Safe to call more than once.
func RegisterBackendMetrics() {
	registerBackendOnce.Do(func() {
		prometheus.MustRegister(BackendCallsTotal)
		prometheus.MustRegister(BackendCallDuration)
		prometheus.MustRegister(RegistryConstructionsTotal)
	})
}
