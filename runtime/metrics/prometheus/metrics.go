// Package prometheus provides Prometheus metrics for the CosyVoice bridge.
package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cosyvoice"

var (
	// synthesisDuration is a histogram of synthesis round trips up to the response headers.
	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Duration of synthesis calls up to the response headers in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "status"}, // status: success, error
	)

	// synthesisRequestsTotal is a counter of synthesis calls.
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Total number of synthesis calls",
		},
		[]string{"provider", "status", "code", "streaming"},
	)

	// synthesisEmotionTagsTotal counts requests that carried an emotion tag.
	synthesisEmotionTagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_emotion_tags_total",
			Help:      "Total number of synthesis calls carrying an emotion tag",
		},
		[]string{"provider"},
	)

	// catalogRefreshDuration is a histogram of speaker-list fetches.
	catalogRefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Duration of speaker-list fetches in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
		},
		[]string{"provider", "status"},
	)

	// catalogVoices is a gauge of voices in the last successful fetch.
	catalogVoices = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_voices",
			Help:      "Number of voices returned by the last successful speaker-list fetch",
		},
		[]string{"provider"},
	)

	// readinessChecksTotal is a counter of readiness checks by step outcome.
	readinessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_checks_total",
			Help:      "Total number of readiness checks",
		},
		[]string{"provider", "catalog", "settings"}, // ok, error
	)

	// notificationsTotal is a counter of user-facing notifications.
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notifications raised to the host",
		},
		[]string{"provider"},
	)

	// settingsChangesTotal is a counter of settings updates.
	settingsChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_changes_total",
			Help:      "Total number of settings updates",
		},
		[]string{"provider", "field"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		synthesisDuration,
		synthesisRequestsTotal,
		synthesisEmotionTagsTotal,
		catalogRefreshDuration,
		catalogVoices,
		readinessChecksTotal,
		notificationsTotal,
		settingsChangesTotal,
	}
)

// RecordSynthesis records a synthesis call. code is the HTTP status, or 0
// when no response was received.
func RecordSynthesis(provider, status string, code int, streaming bool, durationSeconds float64) {
	synthesisDuration.WithLabelValues(provider, status).Observe(durationSeconds)
	synthesisRequestsTotal.WithLabelValues(provider, status, codeLabel(code), strconv.FormatBool(streaming)).Inc()
}

// RecordEmotionTag records a synthesis call carrying an emotion tag.
func RecordEmotionTag(provider string) {
	synthesisEmotionTagsTotal.WithLabelValues(provider).Inc()
}

// RecordCatalogRefresh records a speaker-list fetch. voices is ignored on error.
func RecordCatalogRefresh(provider, status string, voices int, durationSeconds float64) {
	catalogRefreshDuration.WithLabelValues(provider, status).Observe(durationSeconds)
	if status == statusSuccess {
		catalogVoices.WithLabelValues(provider).Set(float64(voices))
	}
}

// RecordReadinessCheck records the outcome of each readiness step.
func RecordReadinessCheck(provider string, catalogErr, settingsErr error) {
	readinessChecksTotal.WithLabelValues(provider, outcome(catalogErr), outcome(settingsErr)).Inc()
}

// RecordNotification records a user-facing notification.
func RecordNotification(provider string) {
	notificationsTotal.WithLabelValues(provider).Inc()
}

// RecordSettingsChange records a settings update.
func RecordSettingsChange(provider, field string) {
	settingsChangesTotal.WithLabelValues(provider, field).Inc()
}

func codeLabel(code int) string {
	if code == 0 {
		return "none"
	}
	return strconv.Itoa(code)
}

func outcome(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}
