package metrics

import "github.com/prometheus/client_golang/prometheus"

// Similarity engine and notification Prometheus metrics.
var (
	SimilarityRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foundry",
			Name:      "similarity_requests_total",
			Help:      "Total number of similarity engine requests",
		},
		[]string{"driver", "operation", "status"},
	)

	SimilarityRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foundry",
			Name:      "similarity_request_duration_seconds",
			Help:      "Similarity engine request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"driver", "operation"},
	)

	MatchesResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foundry",
			Name:      "matches_resolved_total",
			Help:      "Total number of lost/found pairings above the confidence threshold",
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foundry",
			Name:      "notifications_total",
			Help:      "Total match notifications by outcome",
		},
		[]string{"status"}, // "sent" / "error" / "skipped"
	)
)

var similarityMetricsRegistered bool

// RegisterSimilarityMetrics registers the metrics above. Must be called once from main.
func RegisterSimilarityMetrics() {
	if similarityMetricsRegistered {
		return
	}
	prometheus.MustRegister(SimilarityRequestsTotal)
	prometheus.MustRegister(SimilarityRequestDuration)
	prometheus.MustRegister(MatchesResolvedTotal)
	prometheus.MustRegister(NotificationsTotal)
	similarityMetricsRegistered = true
}
