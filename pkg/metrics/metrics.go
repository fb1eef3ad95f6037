package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AnalysesTotal   *prometheus.CounterVec
	ScoringRequests *prometheus.CounterVec
	ScoringDuration prometheus.Histogram
	ScoringAttempts prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	CoalescedCalls  prometheus.Counter
	ActiveSessions  prometheus.Gauge
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of analysis cycles.",
		},
		[]string{"status", "failure_kind"}, // status: success, no_subject, failure
	)

	ScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring round trips by outcome.",
		},
		[]string{"outcome"}, // success, transient, rejected, exhausted, canceled
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of complete scoring operations including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2},
		},
	)

	ScoringAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_attempts_per_request",
			Help:    "Attempts spent per scoring request.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdict_cache_lookups_total",
			Help: "Verdict cache lookups by result.",
		},
		[]string{"result"}, // hit, miss
	)

	CoalescedCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coalesced_scoring_calls_total",
			Help: "Callers that attached to an already in-flight scoring call.",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_watch_sessions",
			Help: "Currently running live watch sessions.",
		},
	)
}
