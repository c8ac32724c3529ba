// Package metrics exposes Prometheus collectors for declared API calls.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Error kinds used for the kind label of decorest_errors_total.
const (
	KindBinding     = "binding"
	KindPath        = "path"
	KindValidation  = "validation"
	KindMethod      = "method"
	KindTransport   = "transport"
	KindHTTP        = "http"
	KindHandler     = "handler"
	KindUnknownCall = "unknown_operation"
)

// Metrics records call outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	callsInFlight *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decorest_calls_total",
				Help: "Total number of declared API calls that received a response",
			},
			[]string{"operation", "method", "status"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "decorest_call_duration_seconds",
				Help:    "Duration of declared API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		callsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "decorest_calls_in_flight",
				Help: "Number of declared API calls currently in flight",
			},
			[]string{"operation"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decorest_errors_total",
				Help: "Total number of failed declared API calls by error kind",
			},
			[]string{"operation", "kind"},
		),
	}
}

func (m *Metrics) CallStart(operation string) {
	if m == nil {
		return
	}
	m.callsInFlight.WithLabelValues(operation).Inc()
}

func (m *Metrics) CallEnd(operation string) {
	if m == nil {
		return
	}
	m.callsInFlight.WithLabelValues(operation).Dec()
}

// RecordResponse counts a call that reached the server.
func (m *Metrics) RecordResponse(operation, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	m.callDuration.WithLabelValues(operation, method).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(operation, kind string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(operation, kind).Inc()
}
