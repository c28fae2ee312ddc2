package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DonationsCreated       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "donations_created_total", Help: "Total donations posted by restaurants"})
	DonationClaims         = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "donation_claims_total", Help: "Total successful donation claims"})
	DonationClaimConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "donation_claim_conflicts_total", Help: "Claims rejected because the donation was no longer available"})
	DonationsExpired       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "donations_expired_total", Help: "Donations moved to expired by the sweep"})
	AssignmentsCreated     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "assignments_created_total", Help: "Total assignments issued to volunteers"})
	AssignmentsCompleted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "foodshare", Name: "assignments_completed_total", Help: "Total assignments completed"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "foodshare", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foodshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
