// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "conference_layer"

// Metrics holds the server's collectors behind a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	autosaveFlushes *prometheus.CounterVec
	submissions     prometheus.Counter
	reversions      prometheus.Counter
	praiseGiven     prometheus.Counter
}

// New creates the collectors and registers them along with the standard Go
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		autosaveFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_flushes_total",
			Help:      "Autosave flushes by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_submissions_total",
			Help:      "Successful application submissions.",
		}),
		reversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_reversions_total",
			Help:      "Applications reverted from SUBMITTED back to DRAFT.",
		}),
		praiseGiven: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "praise_given_total",
			Help:      "Praise records created.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.autosaveFlushes,
		m.submissions,
		m.reversions,
		m.praiseGiven,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	canonical := canonicalPath(path)
	m.httpRequests.WithLabelValues(method, canonical, httpStatusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, canonical).Observe(duration.Seconds())
}

// RequestStarted marks a request in flight and returns the matching finish
// callback.
func (m *Metrics) RequestStarted() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// AutosaveFlush records an autosave outcome ("ok" or "failed").
func (m *Metrics) AutosaveFlush(outcome string) {
	m.autosaveFlushes.WithLabelValues(outcome).Inc()
}

// SubmissionAccepted counts a successful submit.
func (m *Metrics) SubmissionAccepted() { m.submissions.Inc() }

// ReversionDetected counts a SUBMITTED -> DRAFT reversion.
func (m *Metrics) ReversionDetected() { m.reversions.Inc() }

// PraiseCreated counts one praise record.
func (m *Metrics) PraiseCreated() { m.praiseGiven.Inc() }

// canonicalPath collapses resource IDs so the path label stays bounded.
func canonicalPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if i > 0 && looksLikeID(seg) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) >= 16 {
		return true
	}
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func httpStatusLabel(status int) string {
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
