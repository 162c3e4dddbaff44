// Package metrics defines the Prometheus collectors exported on /metrics.
//
// A nil *Metrics is valid and records nothing, so callers that don't care about
// instrumentation (CLI, tests) can pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Metrics groups every collector the server exports.
type Metrics struct {
	rpcRequests      *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	computations     *prometheus.HistogramVec
	settlements      prometheus.Histogram
	transactionsSave prometheus.Counter
	notifications    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		computations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_computation_seconds",
			Help:      "Time spent reading a snapshot and computing a balance view.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"view"}),
		settlements: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_suggestions",
			Help:      "Number of settlement suggestions per simplified group.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		transactionsSave: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_saved_total",
			Help:      "Sum of transactions saved by debt simplification.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Balance-change notifications by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.computations, m.settlements, m.transactionsSave, m.notifications)
	return m
}

// ObserveRPC records one finished RPC. code is "ok" or a Connect error code string.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// ObserveComputation records how long a balance view took to build.
func (m *Metrics) ObserveComputation(view string, d time.Duration) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(view).Observe(d.Seconds())
}

// ObserveSimplification records the size of a settlement plan.
func (m *Metrics) ObserveSimplification(suggestions, saved int) {
	if m == nil {
		return
	}
	m.settlements.Observe(float64(suggestions))
	m.transactionsSave.Add(float64(saved))
}

// ObserveNotification records a notification attempt.
func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(result).Inc()
}
