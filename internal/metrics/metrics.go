// Package metrics exposes the Prometheus instruments shared by the
// bundler, cache, and dev session.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rivet"

// Metrics holds the Prometheus instruments for one bundler instance.
type Metrics struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheEvictions  prometheus.Counter
	CompileDuration *prometheus.HistogramVec
	CompileErrors   *prometheus.CounterVec
	RouteRebuilds   prometheus.Counter
	ChangeEvents    prometheus.Counter
	ReloadClients   prometheus.Gauge
}

// New registers the instruments against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of compilation cache hits",
		}),

		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of compilation cache misses",
		}),

		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache entries removed by eviction",
		}),

		CompileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "External compiler invocation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),

		CompileErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_errors_total",
			Help:      "Total compile failures by error kind",
		}, []string{"kind"}),

		RouteRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_rebuilds_total",
			Help:      "Total number of full route-table rebuilds",
		}),

		ChangeEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Total number of debounced filesystem change events",
		}),

		ReloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reload_clients",
			Help:      "Number of connected live-reload clients",
		}),
	}
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process-wide instruments registered against the
// default Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
