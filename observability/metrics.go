package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	launchpadMetricsOnce sync.Once
	launchpadRegistry    *LaunchpadMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by module, method and error code.",
			}, []string{"module", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC call. A zero code means success.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit" so dashboards remain consistent.
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// LaunchpadMetrics captures sale ledger activity.
type LaunchpadMetrics struct {
	purchases  prometheus.Counter
	unitsSold  prometheus.Counter
	commission prometheus.Counter
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// Launchpad returns the singleton sale ledger metrics registry.
func Launchpad() *LaunchpadMetrics {
	launchpadMetricsOnce.Do(func() {
		launchpadRegistry = &LaunchpadMetrics{
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchpad",
				Name:      "purchases_total",
				Help:      "Count of settled purchases.",
			}),
			unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchpad",
				Name:      "units_sold_total",
				Help:      "Sale units minted to buyers.",
			}),
			commission: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchpad",
				Name:      "commission_total",
				Help:      "Sale units minted to affiliates as commission.",
			}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Name:      "operation_failures_total",
				Help:      "Operations aborted segmented by operation and error kind.",
			}, []string{"op", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "launchpad",
				Name:      "operation_seconds",
				Help:      "Latency of state transitions including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			launchpadRegistry.purchases,
			launchpadRegistry.unitsSold,
			launchpadRegistry.commission,
			launchpadRegistry.failures,
			launchpadRegistry.latency,
		)
	})
	return launchpadRegistry
}

// RecordPurchase tallies a settled purchase.
func (m *LaunchpadMetrics) RecordPurchase(units, commission uint64) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	m.unitsSold.Add(float64(units))
	if commission > 0 {
		m.commission.Add(float64(commission))
	}
}

// RecordOperation observes the latency of op and, when kind is non-empty,
// records the failure.
func (m *LaunchpadMetrics) RecordOperation(op, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
	if kind != "" {
		m.failures.WithLabelValues(op, kind).Inc()
	}
}
