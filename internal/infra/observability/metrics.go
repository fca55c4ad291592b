package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the expense manager.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	rateLookupErrors *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	billsGenerated   *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// BillingSnapshot is an aggregated view of billing and currency metrics for
// the GET /v1/metrics/summary endpoint.
type BillingSnapshot struct {
	BillsCreated     int64   `json:"bills_created"`
	BillsDuplicate   int64   `json:"bills_duplicate"`
	BillsFailed      int64   `json:"bills_failed"`
	RateLookupErrors int64   `json:"rate_lookup_errors"`
	RateCacheHitRate float64 `json:"rate_cache_hit_rate"`
	RequestsTotal    int64   `json:"requests_total"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "expense_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		rateLookupErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_rate_lookup_errors_total",
				Help: "Total failed external exchange-rate lookups.",
			},
			[]string{"provider"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		billsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_bills_generated_total",
				Help: "Total bill generation attempts by outcome.",
			},
			[]string{"outcome"}, // created, duplicate, error
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRateLookupError increments the failed-lookup counter.
func (m *Metrics) IncrRateLookupError(provider string) {
	m.rateLookupErrors.WithLabelValues(provider).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrBillGenerated records one bill generation attempt by outcome.
func (m *Metrics) IncrBillGenerated(outcome string) {
	m.billsGenerated.WithLabelValues(outcome).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetBillingSnapshot gathers current counter values for the metrics summary
// endpoint. Prometheus counters expose cumulative values.
func (m *Metrics) GetBillingSnapshot() *BillingSnapshot {
	hits := getCounterValue(m.cacheHits, "rates")
	misses := getCounterValue(m.cacheMisses, "rates")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &BillingSnapshot{
		BillsCreated:     int64(getCounterValue(m.billsGenerated, "created")),
		BillsDuplicate:   int64(getCounterValue(m.billsGenerated, "duplicate")),
		BillsFailed:      int64(getCounterValue(m.billsGenerated, "error")),
		RateLookupErrors: int64(getCounterValue(m.rateLookupErrors, "exchange-rates")),
		RateCacheHitRate: hitRate,
		RequestsTotal: int64(getCounterValue(m.requestsTotal, "success") +
			getCounterValue(m.requestsTotal, "error")),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
