// Package observability exposes the Prometheus metrics the engine emits.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global collector instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the client engine
type Collector struct {
	registry *prometheus.Registry

	// Gateway metrics
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Reconciliation metrics
	MutationsCommitted  *prometheus.CounterVec
	MutationsRolledBack *prometheus.CounterVec
	MutationsConflicted *prometheus.CounterVec
	MutationsRejected   prometheus.Counter

	// Poller metrics
	PollsIssued   prometheus.Counter
	PollsSettled  prometheus.Counter
	PollsCanceled prometheus.Counter

	// View guard metrics
	ViewsCounted    prometheus.Counter
	ViewsSuppressed prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	gatewayCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Total number of remote gateway calls",
		},
		[]string{"operation", "outcome"},
	)

	gatewayDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Remote gateway call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	mutationsCommitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_committed_total",
			Help:      "Optimistic mutations confirmed by the backend",
		},
		[]string{"kind"},
	)

	mutationsRolledBack := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_rolled_back_total",
			Help:      "Optimistic mutations reverted after a remote failure",
		},
		[]string{"kind"},
	)

	mutationsConflicted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_conflicted_total",
			Help:      "Mutations settled through an ignorable conflict",
		},
		[]string{"kind"},
	)

	mutationsRejected := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_rejected_total",
			Help:      "Mutations rejected because the key was still in flight",
		},
	)

	pollsIssued := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpretation_polls_total",
			Help:      "Poll steps issued while waiting for AI content",
		},
	)

	pollsSettled := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpretation_settled_total",
			Help:      "Poll loops that ended with AI content available",
		},
	)

	pollsCanceled := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpretation_canceled_total",
			Help:      "Poll loops canceled before settling",
		},
	)

	viewsCounted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_counted_total",
			Help:      "View increments sent to the backend",
		},
	)

	viewsSuppressed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_suppressed_total",
			Help:      "View increments suppressed by the session guard",
		},
	)

	registry.MustRegister(
		gatewayCalls,
		gatewayDuration,
		mutationsCommitted,
		mutationsRolledBack,
		mutationsConflicted,
		mutationsRejected,
		pollsIssued,
		pollsSettled,
		pollsCanceled,
		viewsCounted,
		viewsSuppressed,
	)

	globalCollector = &Collector{
		registry:            registry,
		GatewayCalls:        gatewayCalls,
		GatewayDuration:     gatewayDuration,
		MutationsCommitted:  mutationsCommitted,
		MutationsRolledBack: mutationsRolledBack,
		MutationsConflicted: mutationsConflicted,
		MutationsRejected:   mutationsRejected,
		PollsIssued:         pollsIssued,
		PollsSettled:        pollsSettled,
		PollsCanceled:       pollsCanceled,
		ViewsCounted:        viewsCounted,
		ViewsSuppressed:     viewsSuppressed,
	}
	return globalCollector
}

// Registry returns the underlying registry for the /metrics endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveGatewayCall records one gateway call with its outcome and duration.
func (c *Collector) ObserveGatewayCall(operation, outcome string, elapsed time.Duration) {
	c.GatewayCalls.WithLabelValues(operation, outcome).Inc()
	c.GatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
