package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trial decision outcomes recorded by Metrics.TrialDecisions.
const (
	outcomeDeveloper   = "developer"
	outcomeFirstUse    = "first_use"
	outcomeDenied      = "denied"
	outcomeUnavailable = "unavailable"
)

// Metrics holds the Prometheus collectors for the API. Each server owns its
// registry so tests can build as many servers as they like.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	TrialDecisions *prometheus.CounterVec
	Plans          prometheus.Counter
	OverlayErrors  prometheus.Counter
}

// NewMetrics creates and registers the API collectors plus the Go and process
// collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"route"},
		),

		TrialDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_trial_decisions_total",
				Help: "Trial gate decisions by outcome (developer, first_use, denied, unavailable)",
			},
			[]string{"outcome"},
		),

		Plans: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_plans_total",
				Help: "Total number of plans computed",
			},
		),

		OverlayErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_performance_errors_total",
				Help: "Total number of performance overlay requests that failed",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.Duration,
		m.TrialDecisions,
		m.Plans,
		m.OverlayErrors,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
