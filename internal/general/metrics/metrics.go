// Package metrics holds the Prometheus collectors shared by the rydin services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rydin"

var (
	JoinAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "join_attempts_total", Help: "Ride join attempts by outcome"},
		[]string{"outcome"},
	)
	RidesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rides_created_total", Help: "Rides created by origin"},
		[]string{"origin"},
	)
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_transitions_total", Help: "Ride status transitions by target status"},
		[]string{"status"},
	)
	NoShows = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "no_shows_total", Help: "Recorded no-shows by penalty action"},
		[]string{"action"},
	)
	TrustPenalties = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "trust_penalties_total", Help: "Cancel-after-lock trust penalties applied"},
	)
	BucketSlots = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bucket_slots_total", Help: "Bucket slot results by outcome"},
		[]string{"outcome"},
	)
	ProfileWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "profile_writes_total", Help: "Profile updates by where they landed"},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count and latency labelled with the matched route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ww.status)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
