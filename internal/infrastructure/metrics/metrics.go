// Package metrics collects engine telemetry with Prometheus collectors.
// All Record methods are safe on a nil *Collector.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides engine metrics collection.
type Collector struct {
	registry *prometheus.Registry

	validationTotal   *prometheus.CounterVec
	validationLatency *prometheus.HistogramVec
	validationStale   *prometheus.CounterVec

	executionTotal  *prometheus.CounterVec
	executionStatus *prometheus.CounterVec
	flowsOpen       prometheus.Gauge
	historyAppended *prometheus.CounterVec

	ledgerCallTotal   *prometheus.CounterVec
	ledgerCallLatency *prometheus.HistogramVec
}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "handlepay"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.validationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "checks_total",
			Help:      "Total number of applied field validation results",
		},
		[]string{"field", "phase"},
	)

	c.validationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "check_duration_seconds",
			Help:      "Time taken by a field validation call",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"field"},
	)

	c.validationStale = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "stale_total",
			Help:      "Validation results dropped because newer input was issued",
		},
		[]string{"field"},
	)

	c.executionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Finished executions by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	c.executionStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "transitions_total",
			Help:      "Execution status transitions by flow and target status",
		},
		[]string{"flow", "status"},
	)

	c.flowsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "flows_open",
			Help:      "Current number of open flow instances",
		},
	)

	c.historyAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "entries_total",
			Help:      "History entries appended by direction",
		},
		[]string{"direction"},
	)

	c.ledgerCallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "calls_total",
			Help:      "Ledger gateway calls by method and result",
		},
		[]string{"method", "result"},
	)

	c.ledgerCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_duration_seconds",
			Help:      "Ledger gateway call latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method"},
	)

	c.registry.MustRegister(
		c.validationTotal,
		c.validationLatency,
		c.validationStale,
		c.executionTotal,
		c.executionStatus,
		c.flowsOpen,
		c.historyAppended,
		c.ledgerCallTotal,
		c.ledgerCallLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

// RecordValidation records an applied validation result.
func (c *Collector) RecordValidation(field, phase string, duration time.Duration) {
	if c == nil {
		return
	}
	c.validationTotal.WithLabelValues(field, phase).Inc()
	if duration > 0 {
		c.validationLatency.WithLabelValues(field).Observe(duration.Seconds())
	}
}

// RecordStale records a dropped out-of-date validation result.
func (c *Collector) RecordStale(field string) {
	if c == nil {
		return
	}
	c.validationStale.WithLabelValues(field).Inc()
}

// RecordTransition records an execution status change.
func (c *Collector) RecordTransition(flow, status string) {
	if c == nil {
		return
	}
	c.executionStatus.WithLabelValues(flow, status).Inc()
}

// RecordExecution records a finished execution.
func (c *Collector) RecordExecution(flow, outcome string) {
	if c == nil {
		return
	}
	c.executionTotal.WithLabelValues(flow, outcome).Inc()
}

// RecordFlowOpened and RecordFlowClosed track open flow instances.
func (c *Collector) RecordFlowOpened() {
	if c == nil {
		return
	}
	c.flowsOpen.Inc()
}

func (c *Collector) RecordFlowClosed() {
	if c == nil {
		return
	}
	c.flowsOpen.Dec()
}

// RecordHistory records an appended history entry.
func (c *Collector) RecordHistory(direction string) {
	if c == nil {
		return
	}
	c.historyAppended.WithLabelValues(direction).Inc()
}

// RecordLedgerCall records a ledger gateway round trip.
func (c *Collector) RecordLedgerCall(method string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.ledgerCallTotal.WithLabelValues(method, result).Inc()
	c.ledgerCallLatency.WithLabelValues(method).Observe(duration.Seconds())
}
