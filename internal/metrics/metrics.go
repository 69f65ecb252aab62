// Package metrics exposes Prometheus collectors for the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropout_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dropout_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RosterStudents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dropout_roster_students",
		Help: "Students in the last computed roster by risk level.",
	}, []string{"risk_level"})

	RosterCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropout_roster_cache_lookups_total",
		Help: "Roster cache lookups by result.",
	}, []string{"result"})

	IngestedStudents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropout_ingested_students_total",
		Help: "New students stored through roster uploads.",
	})

	LoginThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropout_login_throttled_total",
		Help: "Sign-in attempts rejected by the rate limiter.",
	})
)

// ObserveRoster publishes the risk distribution of a roster.
func ObserveRoster(counts map[model.RiskLevel]int) {
	for level, n := range counts {
		RosterStudents.WithLabelValues(string(level)).Set(float64(n))
	}
}
