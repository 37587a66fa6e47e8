// Package metrics exposes Prometheus instrumentation: generic HTTP
// collectors plus complaint-domain counters. Labels are kept to
// bounded sets (method, chi route pattern, status class) so
// cardinality stays under control.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewvoice_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crewvoice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewvoice_http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	complaintsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewvoice_complaints_submitted_total",
			Help: "Complaints committed, by scope.",
		},
		[]string{"scope"},
	)

	submitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewvoice_complaint_submit_failures_total",
			Help: "Failed submissions, by failure class.",
		},
		[]string{"reason"},
	)

	attachmentUploadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crewvoice_attachment_upload_failures_total",
			Help: "Attachment uploads that failed and were skipped.",
		},
	)
)

// ComplaintSubmitted records a committed complaint.
func ComplaintSubmitted(isGlobal bool) {
	scope := "department"
	if isGlobal {
		scope = "global"
	}
	complaintsSubmitted.WithLabelValues(scope).Inc()
}

// SubmitFailed records a failed submission. Reason is one of
// "validation", "commit".
func SubmitFailed(reason string) {
	submitFailures.WithLabelValues(reason).Inc()
}

// AttachmentUploadFailed records a swallowed upload failure.
func AttachmentUploadFailed() {
	attachmentUploadFailures.Inc()
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments requests with count, latency, and in-flight
// collectors. The chi route pattern is used as the path label so
// parameterized routes collapse into one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		httpReqs.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		httpLat.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
