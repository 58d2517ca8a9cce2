// Package metrics exports Prometheus metrics for store dispatches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odvcencio/burrow/store"
)

// CollectorConfig configures the Prometheus dispatch collector.
type CollectorConfig struct {
	// Namespace is the metrics namespace (default: "burrow").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*CollectorConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *CollectorConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *CollectorConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *CollectorConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *CollectorConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *CollectorConfig) {
		c.Registry = registry
	}
}

func defaultConfig() CollectorConfig {
	return CollectorConfig{
		Namespace: "burrow",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector is a store.DispatchObserver exporting Prometheus metrics.
type Collector struct {
	dispatches *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	listeners  prometheus.Gauge
}

var _ store.DispatchObserver = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics.
func NewCollector(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}
	factory := promauto.With(cfg.Registry)
	return &Collector{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total dispatches by action.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"action"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Dispatches aborted by a side-effect error, by action.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"action"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration by action, side effect included.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"action"}),
		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "listeners",
			Help:        "Listeners notified by the most recent dispatch.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// ObserveDispatch records one dispatch.
func (c *Collector) ObserveDispatch(stats store.DispatchStats) {
	if c == nil {
		return
	}
	c.dispatches.WithLabelValues(stats.ActionID).Inc()
	c.duration.WithLabelValues(stats.ActionID).Observe(stats.TotalDuration.Seconds())
	if stats.Err != nil {
		c.errors.WithLabelValues(stats.ActionID).Inc()
		return
	}
	c.listeners.Set(float64(stats.Listeners))
}
