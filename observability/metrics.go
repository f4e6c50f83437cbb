package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type transitionMetrics struct {
	transitions *prometheus.CounterVec
	tipped      prometheus.Counter
	latency     *prometheus.HistogramVec
}

type rpcMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	transitionMetricsOnce sync.Once
	transitionRegistry    *transitionMetrics

	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics
)

// Transitions returns the lazily-initialised registry tracking applied
// transactions.
func Transitions() *transitionMetrics {
	transitionMetricsOnce.Do(func() {
		transitionRegistry = &transitionMetrics{
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tip",
				Name:      "transitions_total",
				Help:      "Count of applied transactions segmented by type, outcome and error kind.",
			}, []string{"type", "outcome", "kind"}),
			tipped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tip",
				Name:      "amount_total",
				Help:      "Sum of native value moved by committed tips.",
			}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "tip",
				Name:      "transition_duration_seconds",
				Help:      "Latency distribution for applying a transaction.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			transitionRegistry.transitions,
			transitionRegistry.tipped,
			transitionRegistry.latency,
		)
	})
	return transitionRegistry
}

// Observe records a transition outcome. kind is empty for successes.
func (m *transitionMetrics) Observe(txType, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	if txType == "" {
		txType = "unknown"
	}
	outcome := "committed"
	if kind != "" {
		outcome = "rejected"
	} else {
		kind = "none"
	}
	m.transitions.WithLabelValues(txType, outcome, kind).Inc()
	m.latency.WithLabelValues(txType).Observe(duration.Seconds())
}

// RecordTip adds a committed tip amount to the running total.
func (m *transitionMetrics) RecordTip(amount uint64) {
	if m == nil {
		return
	}
	m.tipped.Add(float64(amount))
}

// RPC returns the registry recording JSON-RPC activity.
func RPC() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tip",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and status code.",
			}, []string{"method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "tip",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tip",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected before dispatch.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.latency, rpcRegistry.throttles)
	})
	return rpcRegistry
}

// Observe records the outcome of a JSON-RPC request. status is the HTTP
// status ultimately written.
func (m *rpcMetrics) Observe(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle counts a rejected request. Reasons should be stable strings
// such as "rate_limit" or "unauthorized".
func (m *rpcMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}
