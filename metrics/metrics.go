package metrics

import (
	"maps"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/core/session"
)

// unmatched labels requests that resolved to no route, so arbitrary paths
// never become label values.
const unmatched = "unmatched"

// Config configures a Collector.
type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Buckets     []float64
	Registry    *prometheus.Registry
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace (default: "routekit").
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(s string) Option {
	return func(c *Config) { c.Subsystem = s }
}

// WithConstLabels adds constant labels to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(b []float64) Option {
	return func(c *Config) { c.Buckets = b }
}

// WithRegistry sets the registry metrics are registered with and served from.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = r }
}

// Collector records dispatcher observations as Prometheus metrics.
// It implements router.Observer.
type Collector struct {
	cfg      Config
	factory  promauto.Factory
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the request metrics and returns the collector.
// Each Collector should own its registry; the default is a fresh one.
func New(opts ...Option) *Collector {
	cfg := Config{
		Namespace: "routekit",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(cfg.Registry)
	return &Collector{
		cfg:     cfg,
		factory: factory,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "http_requests_total",
			Help:        "Requests finalized by the dispatcher.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"method", "route", "blueprint", "status", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "Time from resolution to finalization.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"method", "route", "outcome"}),
	}
}

// Observe implements router.Observer.
func (c *Collector) Observe(o router.Observation) {
	route := o.Pattern
	if route == "" {
		route = unmatched
	}
	outcome := string(o.Outcome)
	c.requests.WithLabelValues(o.Method, route, o.Blueprint, strconv.Itoa(o.Status), outcome).Inc()
	c.duration.WithLabelValues(o.Method, route, outcome).Observe(o.Duration.Seconds())
}

// TrackSessions exports stats of a session store under the given store label.
func (c *Collector) TrackSessions(store string, stats func() session.Stats) {
	labels := prometheus.Labels{"store": store}
	gauge := func(name, help string, value func(session.Stats) float64) {
		c.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   c.cfg.Namespace,
			Subsystem:   c.cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: merge(c.cfg.ConstLabels, labels),
		}, func() float64 { return value(stats()) })
	}
	gauge("sessions_active", "Live session entries.", func(s session.Stats) float64 { return float64(s.Active) })
	gauge("sessions_expired", "Session entries expired since start.", func(s session.Stats) float64 { return float64(s.Expired) })
}

// TrackConnections exports the number of open socket connections.
func (c *Collector) TrackConnections(count func() int) {
	c.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   c.cfg.Namespace,
		Subsystem:   c.cfg.Subsystem,
		Name:        "socket_connections",
		Help:        "Open WebSocket connections.",
		ConstLabels: c.cfg.ConstLabels,
	}, func() float64 { return float64(count()) })
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.cfg.Registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() handler.HandlerFunc {
	return handler.Wrap(promhttp.HandlerFor(c.cfg.Registry, promhttp.HandlerOpts{}))
}

func merge(a, b prometheus.Labels) prometheus.Labels {
	out := make(prometheus.Labels, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
