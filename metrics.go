package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlannerMetrics bundles the Prometheus instruments for the planning API.
type PlannerMetrics struct {
	gatherer prometheus.Gatherer

	Requests     *prometheus.CounterVec
	PlanDuration prometheus.Histogram
	LoadedZones  prometheus.Gauge
}

// NewPlannerMetrics registers the instruments against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPlannerMetrics(reg prometheus.Registerer) *PlannerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &PlannerMetrics{
		gatherer: gatherer,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_requests_total",
			Help: "Handled API requests, labeled by endpoint and outcome.",
		}, []string{"endpoint", "status"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_plan_duration_seconds",
			Help:    "Time spent computing avoidance paths.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		LoadedZones: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_loaded_zones",
			Help: "Number of zones currently held by the zone store.",
		}),
	}

	reg.MustRegister(m.Requests, m.PlanDuration, m.LoadedZones)
	return m
}

// Handler exposes a ready-to-use /metrics handler.
func (m *PlannerMetrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
