package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartenergy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartenergy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartenergy",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)

	readingsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartenergy",
			Subsystem: "energy",
			Name:      "readings_ingested_total",
			Help:      "Readings persisted, by ingestion source.",
		},
		[]string{"source"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		logins,
		readingsIngested,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveRequest(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func ObserveLogin(err error) {
	switch {
	case err == nil:
		logins.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrUnauthenticated):
		logins.WithLabelValues("rejected").Inc()
	default:
		logins.WithLabelValues("error").Inc()
	}
}

func ObserveIngest(source string, n int) {
	readingsIngested.WithLabelValues(source).Add(float64(n))
}
