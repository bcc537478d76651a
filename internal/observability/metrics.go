package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	navigationsTotal      *prometheus.CounterVec
	completionsTotal      *prometheus.CounterVec
	linearViolationsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the delivery API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_requests_total",
			Help: "Total number of delivery API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "delivery_latency_seconds",
			Help:    "Latency distribution for delivery API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		navigationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_navigations_total",
			Help: "Navigation requests by intent and outcome.",
		}, []string{"intent", "outcome"})

		completionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_submission_completions_total",
			Help: "Completed submissions by completion reason.",
		}, []string{"reason"})

		linearViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delivery_linear_violations_total",
			Help: "Page requests refused because they skip ahead on a linear assessment.",
		})

		prometheus.MustRegister(requestsTotal, latencySeconds, navigationsTotal, completionsTotal, linearViolationsTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Navigations exposes the navigation outcome counter.
func Navigations() *prometheus.CounterVec {
	RegisterMetrics()
	return navigationsTotal
}

// Completions exposes the completion counter.
func Completions() *prometheus.CounterVec {
	RegisterMetrics()
	return completionsTotal
}

// LinearViolations exposes the linear guard counter.
func LinearViolations() prometheus.Counter {
	RegisterMetrics()
	return linearViolationsTotal
}
