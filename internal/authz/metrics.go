package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for authorization decisions. All
// methods are nil-safe so callers may run without instrumentation.
type Metrics struct {
	decisions *prometheus.CounterVec
	cacheOps  *prometheus.CounterVec
	resolve   prometheus.Histogram
}

// NewMetrics registers the authz collectors against the provided
// registerer. A nil registerer yields an isolated registry, which keeps
// tests independent of global state.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_authz_decisions_total",
		Help: "Authorization decisions by check type and outcome.",
	}, []string{"check", "outcome"})
	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_authz_cache_total",
		Help: "Permission cache lookups by result.",
	}, []string{"result"})
	resolve := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "academia_authz_resolve_duration_seconds",
		Help:    "Duration of permission set resolution including store loads.",
		Buckets: prometheus.DefBuckets,
	})
	registerer.MustRegister(decisions, cacheOps, resolve)
	return &Metrics{decisions: decisions, cacheOps: cacheOps, resolve: resolve}
}

func (m *Metrics) decision(check string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(check, outcome).Inc()
}

// denyError records a check that failed closed due to an internal error,
// keeping degraded denies distinguishable from policy denies.
func (m *Metrics) denyError(check string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(check, "deny_error").Inc()
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(result).Inc()
}

func (m *Metrics) observeResolve(start time.Time) {
	if m == nil {
		return
	}
	m.resolve.Observe(time.Since(start).Seconds())
}
