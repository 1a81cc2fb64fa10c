// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Names use the labcms_ prefix, _total for counters and _seconds for
// durations. Collectors are registered on an injected registry so tests can
// use a fresh one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// LoginsTotal counts login attempts by outcome
	// (success, bad_request, invalid_credentials, forbidden, rate_limited, error).
	LoginsTotal *prometheus.CounterVec

	// GateDecisionsTotal counts access gate decisions by reason.
	GateDecisionsTotal *prometheus.CounterVec

	// RevokedTokens is the size of the local denylist snapshot.
	RevokedTokens prometheus.Gauge
}

// New creates the collectors and registers them on reg together with the Go
// runtime and process collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labcms_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labcms_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labcms_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labcms_logins_total",
			Help: "Admin login attempts by outcome.",
		}, []string{"outcome"}),
		GateDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labcms_gate_decisions_total",
			Help: "Access gate decisions by reason.",
		}, []string{"reason"}),
		RevokedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labcms_revoked_tokens",
			Help: "Unexpired revoked tokens in the local snapshot.",
		}),
	}

	reg.MustRegister(
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.LoginsTotal, m.GateDecisionsTotal, m.RevokedTokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Instrument records count, latency and in-flight requests. The route label
// is the chi route pattern so ids do not blow up cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  routePattern(r),
			"status": strconv.Itoa(status),
		}
		m.httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.With(labels).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
