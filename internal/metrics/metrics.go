// Package metrics holds the Prometheus collectors for the API. A Metrics
// value owns its registry; a nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	VotesTotal          *prometheus.CounterVec
	VotesNullified      prometheus.Counter
	TrustActions        *prometheus.CounterVec
	AlertsRaised        *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	RequestsInFlight    prometheus.Gauge
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	ScoreRecalcDuration prometheus.Histogram
}

// New builds and registers every collector. When pool is non-nil the
// connection pool gauges are registered as well.
func New(pool *pgxpool.Pool) *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkraft_votes_total",
			Help: "Vote casts, by outcome (created, flipped, retracted).",
		},
		[]string{"outcome"},
	)
	m.VotesNullified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inkraft_votes_nullified_total",
			Help: "Votes removed by admin nullification.",
		},
	)
	m.TrustActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkraft_trust_actions_total",
			Help: "Admin trust freeze/unfreeze actions.",
		},
		[]string{"action"},
	)
	m.AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkraft_admin_alerts_raised_total",
			Help: "Admin alerts raised, by type.",
		},
		[]string{"type"},
	)
	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkraft_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
	m.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkraft_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)
	m.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inkraft_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)
	m.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inkraft_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)
	m.ScoreRecalcDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inkraft_score_recalculation_duration_seconds",
			Help:    "Duration of post score recalculations.",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.Registry.MustRegister(
		m.VotesTotal,
		m.VotesNullified,
		m.TrustActions,
		m.AlertsRaised,
		m.RequestDuration,
		m.RequestsInFlight,
		m.CacheHits,
		m.CacheMisses,
		m.ScoreRecalcDuration,
	)

	if pool != nil {
		m.Registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "inkraft_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "inkraft_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	}

	return m
}

func (m *Metrics) Vote(outcome string) {
	if m != nil {
		m.VotesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Nullified(n int) {
	if m != nil {
		m.VotesNullified.Add(float64(n))
	}
}

func (m *Metrics) TrustAction(action string) {
	if m != nil {
		m.TrustActions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) AlertRaised(alertType string) {
	if m != nil {
		m.AlertsRaised.WithLabelValues(alertType).Inc()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) ScoreRecalc(d time.Duration) {
	if m != nil {
		m.ScoreRecalcDuration.Observe(d.Seconds())
	}
}
