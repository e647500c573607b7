package metrics

import "github.com/prometheus/client_golang/prometheus"

// Federated search Prometheus metrics.
var (
	SearchProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "findex",
			Name:      "search_provider_duration_seconds",
			Help:      "Per-type search provider duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "search_degraded_total",
			Help:      "Federated searches that lost a type to a provider failure",
		},
		[]string{"type"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "search_cache_total",
			Help:      "Suggest response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchValidationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "search_validation_failures_total",
			Help:      "Advanced search expressions rejected by validation",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchProviderDuration)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SearchValidationFailuresTotal)
	searchMetricsRegistered = true
}
