package observability

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type apiMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type fundMetrics struct {
	operations        *prometheus.CounterVec
	stateTransitions  *prometheus.CounterVec
	toleranceFailures prometheus.Counter
	feeShares         *prometheus.CounterVec
	pendingQueue      *prometheus.GaugeVec
}

type oracleMetrics struct {
	valuations *prometheus.CounterVec
	freshness  *prometheus.GaugeVec
}

var (
	apiMetricsOnce sync.Once
	apiRegistry    *apiMetrics

	fundMetricsOnce sync.Once
	fundRegistry    *fundMetrics

	oracleMetricsOnce sync.Once
	oracleRegistry    *oracleMetrics
)

// API returns the lazily-initialised registry used to record query-server
// activity.
func API() *apiMetrics {
	apiMetricsOnce.Do(func() {
		apiRegistry = &apiMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total query requests segmented by route and outcome.",
			}, []string{"route", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total query errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "folio",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for query handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter.",
			}, []string{"route"}),
		}
		prometheus.MustRegister(
			apiRegistry.requests,
			apiRegistry.errors,
			apiRegistry.latency,
			apiRegistry.throttles,
		)
	})
	return apiRegistry
}

// Observe records the outcome of a query request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *apiMetrics) Observe(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, fmt.Sprintf("%d", status)).Inc()
	}
	m.requests.WithLabelValues(route, outcome).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied route.
func (m *apiMetrics) RecordThrottle(route string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.throttles.WithLabelValues(route).Inc()
}

// Funds returns the registry tracking fund lifecycle activity.
func Funds() *fundMetrics {
	fundMetricsOnce.Do(func() {
		fundRegistry = &fundMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "fund",
				Name:      "operations_total",
				Help:      "Count of fund operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			stateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "fund",
				Name:      "state_transitions_total",
				Help:      "Count of fund lifecycle transitions segmented by target state.",
			}, []string{"to"}),
			toleranceFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "fund",
				Name:      "tolerance_failures_total",
				Help:      "Count of strategy executions rejected by the value-tolerance check.",
			}),
			feeShares: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "fund",
				Name:      "fee_shares_total",
				Help:      "Total fee shares minted to managers segmented by fee kind.",
			}, []string{"kind"}),
			pendingQueue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "folio",
				Subsystem: "fund",
				Name:      "pending_redemption_liability",
				Help:      "Outstanding pending-redemption payout per fund in denomination units.",
			}, []string{"fund"}),
		}
		prometheus.MustRegister(
			fundRegistry.operations,
			fundRegistry.stateTransitions,
			fundRegistry.toleranceFailures,
			fundRegistry.feeShares,
			fundRegistry.pendingQueue,
		)
	})
	return fundRegistry
}

// RecordOperation counts one fund operation. Operation names should be stable
// strings such as "purchase" or "execute" so dashboards remain consistent.
func (m *fundMetrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// RecordTransition counts a lifecycle transition into the named state.
func (m *fundMetrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.stateTransitions.WithLabelValues(to).Inc()
}

// RecordToleranceFailure counts one rejected strategy execution.
func (m *fundMetrics) RecordToleranceFailure() {
	if m == nil {
		return
	}
	m.toleranceFailures.Inc()
}

// RecordFeeShares adds minted fee shares for the given kind, "management" or
// "performance".
func (m *fundMetrics) RecordFeeShares(kind string, shares *big.Int) {
	if m == nil || shares == nil || shares.Sign() <= 0 {
		return
	}
	m.feeShares.WithLabelValues(kind).Add(bigToFloat(shares))
}

// SetPendingLiability updates the pending payout gauge for a fund.
func (m *fundMetrics) SetPendingLiability(fund string, amount *big.Int) {
	if m == nil {
		return
	}
	value := 0.0
	if amount != nil && amount.Sign() > 0 {
		value = bigToFloat(amount)
	}
	m.pendingQueue.WithLabelValues(fund).Set(value)
}

// bigToFloat lossily converts ledger amounts for gauges and counters; exact
// values stay on chain, the metric only needs magnitude.
func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// Oracle returns the registry tracking valuation and feed health.
func Oracle() *oracleMetrics {
	oracleMetricsOnce.Do(func() {
		oracleRegistry = &oracleMetrics{
			valuations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "oracle",
				Name:      "valuations_total",
				Help:      "Count of asset valuations segmented by outcome.",
			}, []string{"outcome"}),
			freshness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "folio",
				Subsystem: "oracle",
				Name:      "feed_age_seconds",
				Help:      "Age in seconds of the most recently served price per feed.",
			}, []string{"feed"}),
		}
		prometheus.MustRegister(oracleRegistry.valuations, oracleRegistry.freshness)
	})
	return oracleRegistry
}

// RecordValuation counts one valuation request.
func (m *oracleMetrics) RecordValuation(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.valuations.WithLabelValues(outcome).Inc()
}

// RecordFeedAge updates the freshness gauge for a feed.
func (m *oracleMetrics) RecordFeedAge(feed string, age time.Duration) {
	if m == nil {
		return
	}
	m.freshness.WithLabelValues(strings.ToLower(strings.TrimSpace(feed))).Set(age.Seconds())
}
