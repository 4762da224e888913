// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_turns_processed_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"outcome"},
	)

	SearchesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searches_submitted_total",
			Help: "Total number of searches submitted by mode",
		},
		[]string{"mode"},
	)

	SearchesAbandoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searches_abandoned_total",
			Help: "Total number of in-flight searches abandoned by a newer turn",
		},
	)

	SearchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searches_failed_total",
			Help: "Total number of searches that failed or timed out",
		},
		[]string{"error_code"},
	)

	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_poll_attempts",
			Help:    "Number of status polls per completed search",
			Buckets: prometheus.LinearBuckets(1, 5, 12),
		},
	)

	OffersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offers_returned",
			Help:    "Offers returned to the user per presenting turn",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversations_active",
			Help: "Number of conversations currently held in the session store",
		},
	)
)
