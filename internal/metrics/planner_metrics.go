package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetricsCollector holds the trip planning metrics.
type PlannerMetricsCollector struct {
	plansTotal       *prometheus.CounterVec
	planDuration     prometheus.Histogram
	stops            prometheus.Histogram
	gallonsTotal     prometheus.Counter
	refineIterations prometheus.Histogram
	candidates       prometheus.Histogram
}

func NewPlannerMetricsCollector() *PlannerMetricsCollector {
	return &PlannerMetricsCollector{
		plansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plans_total",
				Help:      "Trip plan requests by outcome",
			},
			[]string{"outcome"},
		),

		planDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_duration_seconds",
				Help:      "End to end trip planning latency including upstream calls",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		stops: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stops",
				Help:      "Station stops per successful plan",
				Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
			},
		),

		gallonsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gallons_total",
				Help:      "Gallons purchased across all successful plans",
			},
		),

		refineIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refine_iterations",
				Help:      "Accepted refinement moves per plan",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),

		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "candidates",
				Help:      "Candidate stations fed to the planner after pruning",
				Buckets:   []float64{0, 5, 10, 25, 50, 100, 200},
			},
		),
	}
}

// Register adds all planner metrics to reg.
func (c *PlannerMetricsCollector) Register(reg prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		c.plansTotal,
		c.planDuration,
		c.stops,
		c.gallonsTotal,
		c.refineIterations,
		c.candidates,
	}

	for _, metric := range metrics {
		if err := reg.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

func (c *PlannerMetricsCollector) RecordPlan(outcome string, durationSeconds float64) {
	c.plansTotal.WithLabelValues(outcome).Inc()
	c.planDuration.Observe(durationSeconds)
}

func (c *PlannerMetricsCollector) RecordPlanShape(candidates, stops, refineIterations int, gallons float64) {
	c.candidates.Observe(float64(candidates))
	c.stops.Observe(float64(stops))
	c.refineIterations.Observe(float64(refineIterations))
	c.gallonsTotal.Add(gallons)
}
