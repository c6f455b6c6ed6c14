// Package metrics exposes the rating engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager records match processing and scans, it implements back.Recorder.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	matchResults  *prometheus.CounterVec
	matchDuration *prometheus.HistogramVec
	scans         prometheus.Counter
	scanDuration  prometheus.Histogram
	scanLastFound prometheus.Gauge
	scanLastUnix  prometheus.Gauge
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry registers the metrics on the given registry instead of a new
// private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scrimrank",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchResults = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "rating",
			Name:      "matches_total",
			Help:      "Matches handed to the rating engine by outcome or failure reason",
		},
		[]string{"result"},
	)

	m.matchDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "rating",
			Name:      "match_duration_seconds",
			Help:      "Time spent processing a single match",
			Buckets:   m.histogramBuckets,
		},
		[]string{"result"},
	)

	m.scans = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "scan",
		Name:      "runs_total",
		Help:      "Scans of unprocessed matches",
	})

	m.scanDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "Time spent in a single scan",
		Buckets:   m.histogramBuckets,
	})

	m.scanLastFound = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "scan",
		Name:      "last_found",
		Help:      "Unprocessed matches found by the last scan",
	})

	m.scanLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "scan",
		Name:      "last_unix_seconds",
		Help:      "Unix timestamp of the end of the last scan",
	})
}

func (m *Manager) ObserveMatch(result string, d time.Duration) {
	m.matchResults.WithLabelValues(result).Inc()
	m.matchDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Manager) ObserveScan(found int, d time.Duration) {
	m.scans.Inc()
	m.scanDuration.Observe(d.Seconds())
	m.scanLastFound.Set(float64(found))
	m.scanLastUnix.SetToCurrentTime()
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
