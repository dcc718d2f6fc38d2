package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcircle_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodcircle_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain metrics
	JournalsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moodcircle_journals_created_total",
			Help: "Total number of journals created",
		},
	)

	JournalShares = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcircle_journal_sharing_updates_total",
			Help: "Journal sharing updates by outcome (shared, unshared)",
		},
		[]string{"outcome"},
	)

	CirclesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moodcircle_circles_created_total",
			Help: "Total number of circles created",
		},
	)

	MembershipChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcircle_circle_membership_changes_total",
			Help: "Circle membership changes by action (added, removed)",
		},
		[]string{"action"},
	)

	// AI gateway metrics
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcircle_gateway_calls_total",
			Help: "AI gateway calls by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodcircle_gateway_latency_seconds",
			Help:    "AI gateway call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(JournalsCreated)
	prometheus.MustRegister(JournalShares)
	prometheus.MustRegister(CirclesCreated)
	prometheus.MustRegister(MembershipChanges)
	prometheus.MustRegister(GatewayCalls)
	prometheus.MustRegister(GatewayLatency)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
