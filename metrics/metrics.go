// Package metrics exposes Prometheus instrumentation for the cycle engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	observers     prometheus.Gauge
	reminders     *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates collectors under namespace on a private registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Cycle store operations by operation and result",
			},
			[]string{"op", "result"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Cycle store operation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		observers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_observers",
				Help:      "Open cycle subscriptions",
			},
		),
		reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_sent_total",
				Help:      "Reminders delivered by kind",
			},
			[]string{"kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(
		m.storeOps,
		m.storeDuration,
		m.observers,
		m.reminders,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StoreOp records one store call.
func (m *Metrics) StoreOp(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(op, result).Inc()
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserverOpened() {
	if m != nil {
		m.observers.Inc()
	}
}

func (m *Metrics) ObserverClosed() {
	if m != nil {
		m.observers.Dec()
	}
}

// ReminderSent counts a delivered reminder.
func (m *Metrics) ReminderSent(kind string) {
	if m != nil {
		m.reminders.WithLabelValues(kind).Inc()
	}
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}
