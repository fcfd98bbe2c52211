// Package metrics provides Prometheus metrics collection for minapi.
package metrics

import (
	"strings"
	"time"

	"github.com/artpar/minapi/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "minapi"

// Collector holds all Prometheus metrics for minapi.
// It doubles as the store observer and the dispatcher's outcome recorder.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Dispatch metrics
	Outcomes *prometheus.CounterVec

	// Store metrics
	StoreRecords    *prometheus.GaugeVec
	StoreOperations *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_outcomes_total",
				Help:      "Dispatched requests by route template and outcome kind",
			},
			[]string{"method", "route", "kind"},
		),
		StoreRecords: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_records",
				Help:      "Number of records held by each resource store",
			},
			[]string{"resource"},
		),
		StoreOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Mutating store operations by resource, operation and result",
			},
			[]string{"resource", "op", "result"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// RecordOutcome implements ports.OutcomeRecorder.
func (c *Collector) RecordOutcome(method, route, kind string) {
	c.Outcomes.WithLabelValues(method, RouteLabel(route), kind).Inc()
}

// OnOperation implements ports.StoreObserver.
func (c *Collector) OnOperation(resourceName, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.StoreOperations.WithLabelValues(resourceName, op, result).Inc()
}

// OnSize implements ports.StoreObserver.
func (c *Collector) OnSize(resourceName string, size int) {
	c.StoreRecords.WithLabelValues(resourceName).Set(float64(size))
}

// ConfigReloaded records the result of a config reload.
func (c *Collector) ConfigReloaded(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// UnmatchedRoute labels requests that resolved to no route template.
const UnmatchedRoute = "unmatched"

// RouteLabel returns the label for a matched route template. Labels are
// bounded by the registered templates; raw request paths are never used.
func RouteLabel(template string) string {
	if template == "" {
		return UnmatchedRoute
	}
	return strings.ToValidUTF8(template, "\uFFFD")
}

var (
	_ ports.StoreObserver   = (*Collector)(nil)
	_ ports.OutcomeRecorder = (*Collector)(nil)
)
