// Package metrics declares the Prometheus collectors of the shortener.
// They are registered with the default registry by promauto and exposed
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Expiration reasons.
const (
	ReasonTime    = "time"
	ReasonMaxUses = "max_uses"
	ReasonSweep   = "sweep"
)

var (
	// HTTPRequestDuration tracks the duration of HTTP requests by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortage_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortage_registrations_total",
			Help: "Total number of registered short links",
		},
	)

	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortage_redirects_total",
			Help: "Total number of answered redirects",
		},
	)

	// ExpirationsTotal counts mappings removed because a limit was reached.
	ExpirationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortage_expirations_total",
			Help: "Total number of mappings removed on expiry",
		},
		[]string{"reason"},
	)

	// RegistrySize is the number of live mappings.
	RegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortage_registry_size",
			Help: "Number of mappings currently registered",
		},
	)
)

// RecordExpired counts one removed mapping.
func RecordExpired(reason string) {
	ExpirationsTotal.WithLabelValues(reason).Inc()
}

// RecordSwept counts mappings removed by the sweeper.
func RecordSwept(n int) {
	ExpirationsTotal.WithLabelValues(ReasonSweep).Add(float64(n))
}
