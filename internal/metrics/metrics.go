// Package metrics exposes Prometheus instrumentation for the sampling
// service: decision outcomes, prompt lifecycle results, survey tabs, and
// submission activity, plus the shared HTTP middleware.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts incoming decision events by event type and what
	// the engine did with them.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cues_decisions_total",
			Help: "Total number of decision events received",
		},
		[]string{"event_type", "outcome"}, // outcome: prompted, ineligible, not_ready, throttled
	)

	// PromptsTotal counts prompt terminal transitions.
	PromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cues_prompts_total",
			Help: "Total number of survey prompts by terminal result",
		},
		[]string{"result"}, // accepted, deferred, expired, superseded
	)

	// SurveyTabsTotal counts survey tabs opened by survey location.
	SurveyTabsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cues_survey_tabs_total",
			Help: "Total number of survey tabs opened",
		},
		[]string{"location"},
	)

	// SubmissionsRecordedTotal counts completed surveys handed to the queue.
	SubmissionsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cues_submissions_recorded_total",
			Help: "Total number of completed surveys recorded",
		},
	)

	// SubmissionFlushesTotal counts queue flush attempts.
	SubmissionFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cues_submission_flushes_total",
			Help: "Total number of submission queue flushes",
		},
		[]string{"result"}, // success, error, empty
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordDecision records a decision event outcome.
func RecordDecision(eventType, outcome string) {
	DecisionsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordPromptResult records a prompt terminal transition.
func RecordPromptResult(result string) {
	PromptsTotal.WithLabelValues(result).Inc()
}

// RecordSurveyTab records an opened survey tab.
func RecordSurveyTab(location string) {
	SurveyTabsTotal.WithLabelValues(location).Inc()
}

// RecordHTTPRequest records metrics for a served HTTP request.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}
