// Package metrics exposes Prometheus instruments for the analytics API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "surveyd"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheLookups      *prometheus.CounterVec
	cacheEvictions    prometheus.Counter
	analyticsDuration *prometheus.HistogramVec
	exports           *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		cacheEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Cache entries removed by write invalidation",
			},
		),
		analyticsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analytics_duration_seconds",
				Help:      "Time spent computing analytics",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"time_series"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Exports served by format",
			},
			[]string{"format"},
		),
	}
	reg.MustRegister(m.cacheLookups, m.cacheEvictions, m.analyticsDuration, m.exports)
	return m
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

func (m *Metrics) ObserveAnalytics(timeSeries bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if timeSeries {
		label = "true"
	}
	m.analyticsDuration.WithLabelValues(label).Observe(d.Seconds())
}

func (m *Metrics) ExportServed(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
