package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "fuelroute"
	subsystem = "planner"
)

// Outcome labels for plans_total.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// PlannerRecorder is what the trip planning service reports to.
type PlannerRecorder interface {
	RecordPlan(outcome string, durationSeconds float64)
	RecordPlanShape(candidates, stops, refineIterations int, gallons float64)
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordPlan(string, float64)             {}
func (Nop) RecordPlanShape(int, int, int, float64) {}
