// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcome labels.
const (
	OutcomeCorrect     = "correct"
	OutcomeAlternative = "alternative"
	OutcomeCloseMiss   = "close_miss"
	OutcomeIncorrect   = "incorrect"
	OutcomeDuplicate   = "duplicate"
)

// Metrics groups the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AttemptsTotal      *prometheus.CounterVec
	AttemptQuality     prometheus.Histogram
	ResponseSeconds    prometheus.Histogram
	CASRetriesTotal    prometheus.Counter
	CASExhaustedTotal  prometheus.Counter
	ExercisesSelected  *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verbdrill_attempts_total",
			Help: "Graded attempts by outcome",
		}, []string{"outcome"}),
		AttemptQuality: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verbdrill_attempt_quality",
			Help:    "Quality rating (0-5) assigned to graded attempts",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
		ResponseSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verbdrill_attempt_response_seconds",
			Help:    "Learner response time per attempt",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 60},
		}),
		CASRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "verbdrill_review_state_cas_retries_total",
			Help: "Compare-and-set attempts lost to a concurrent writer",
		}),
		CASExhaustedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "verbdrill_review_state_cas_exhausted_total",
			Help: "Attempts rejected after exhausting compare-and-set retries",
		}),
		ExercisesSelected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verbdrill_exercises_selected_total",
			Help: "Exercises handed out by source (due, new, practice)",
		}, []string{"source"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verbdrill_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verbdrill_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveAttempt records a graded attempt.
func (m *Metrics) ObserveAttempt(outcome string, quality int, responseSeconds float64) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
	m.AttemptQuality.Observe(float64(quality))
	m.ResponseSeconds.Observe(responseSeconds)
}

// ObserveCASRetry records a lost compare-and-set.
func (m *Metrics) ObserveCASRetry() {
	if m == nil {
		return
	}
	m.CASRetriesTotal.Inc()
}

// ObserveCASExhausted records an attempt that ran out of retries.
func (m *Metrics) ObserveCASExhausted() {
	if m == nil {
		return
	}
	m.CASExhaustedTotal.Inc()
}

// ObserveSelection records one selected exercise.
func (m *Metrics) ObserveSelection(source string) {
	if m == nil {
		return
	}
	m.ExercisesSelected.WithLabelValues(source).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route).Observe(seconds)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
