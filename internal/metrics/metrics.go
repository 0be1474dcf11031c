package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeExhausted   = "exhausted"
	OutcomeStale       = "stale"
	OutcomeError       = "error"
)

var (
	SuggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kelasku_suggestion_requests_total",
			Help: "Suggestion refreshes by outcome",
		},
		[]string{"outcome"},
	)

	SuggestionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kelasku_suggestion_attempts_total",
			Help: "Individual suggestion attempts including retries, by result",
		},
		[]string{"result"},
	)

	SuggestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kelasku_suggestion_duration_seconds",
			Help:    "End-to-end suggestion refresh latency including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 0.8, 1, 2, 4, 8, 16},
		},
	)

	TrackedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kelasku_tracked_events_total",
			Help: "Behavior events recorded, by kind",
		},
		[]string{"kind"}, // view, favorite, cart_add, search
	)

	AssistantReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kelasku_assistant_replies_total",
			Help: "Assistant replies by scoring strategy",
		},
		[]string{"strategy"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kelasku_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kelasku_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

func RecordSuggestion(outcome string, duration time.Duration) {
	SuggestionRequests.WithLabelValues(outcome).Inc()
	SuggestionDuration.Observe(duration.Seconds())
}

func RecordAttempt(result string) {
	SuggestionAttempts.WithLabelValues(result).Inc()
}

func RecordEvent(kind string) {
	TrackedEvents.WithLabelValues(kind).Inc()
}

func RecordAssistant(strategy string) {
	AssistantReplies.WithLabelValues(strategy).Inc()
}

func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
