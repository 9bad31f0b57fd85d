// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP surface
	HTTPRequestTotal *prometheus.CounterVec

	// Fetch lifecycle
	FetchTransitionTotal *prometheus.CounterVec
	StaleResultTotal     *prometheus.CounterVec

	// Normalizer
	RecordDroppedTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	mu             sync.Mutex
)

// Default returns the process-wide metrics instance, creating and registering
// it on first use.
func Default() *Metrics {
	mu.Lock()
	defer mu.Unlock()

	if defaultMetrics != nil {
		return defaultMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "path", "status"}),

		FetchTransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_fetch_transitions_total",
			Help: "Fetch lifecycle state transitions",
		}, []string{"entity", "state"}),

		StaleResultTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_fetch_stale_results_total",
			Help: "In-flight fetch results discarded because the bound query changed",
		}, []string{"entity"}),

		RecordDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_records_dropped_total",
			Help: "Records dropped during normalization",
		}, []string{"entity", "reason"}),
	}

	register(m.HTTPRequestTotal)
	register(m.FetchTransitionTotal)
	register(m.StaleResultTotal)
	register(m.RecordDroppedTotal)

	defaultMetrics = m
	return m
}

// register adds a collector to the default registry, tolerating duplicate
// registration across tests.
func register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}
