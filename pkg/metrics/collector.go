// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled Telegram updates labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of Telegram update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	conversationResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_resets_total",
			Help: "Total number of conversations reset by the recovery path",
		},
	)
	geocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoding requests labeled by outcome",
		},
		[]string{"status"},
	)
	carparkSearchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "carpark_search_duration_seconds",
			Help:    "Duration of carpark searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordUpdate reports a handled update with its outcome and duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStateTransition reports a transition between conversation states.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordConversationReset reports a recovery-path reset.
func RecordConversationReset() {
	conversationResetsTotal.Inc()
}

// RecordGeocode reports the outcome of a geocoding call ("ok", "empty", "error").
func RecordGeocode(status string) {
	geocodeRequestsTotal.WithLabelValues(status).Inc()
}

// RecordCarparkSearch reports the duration of a carpark search.
func RecordCarparkSearch(duration time.Duration) {
	carparkSearchDurationSeconds.Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
