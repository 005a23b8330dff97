// Package metrics holds the prometheus collectors for schedule calculation
// and simulation. Collectors register with the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for CalculationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeCycle    = "cycle"
	OutcomeInvalid  = "invalid"
	OutcomeTooLarge = "too_large"
	OutcomeTimeout  = "timeout"
)

var (
	// CalculationsTotal counts calculations by outcome.
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmsched_calculations_total",
		Help: "Total schedule calculations by outcome",
	}, []string{"outcome"})

	// CalculationDuration tracks wall-clock time per calculation.
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmsched_calculation_duration_seconds",
		Help:    "Schedule calculation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	})

	// ActivitiesPerCalculation tracks network size.
	ActivitiesPerCalculation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmsched_calculation_activities",
		Help:    "Number of activities per calculation",
		Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000},
	})

	// SimulationIterations counts completed Monte Carlo iterations.
	SimulationIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmsched_simulation_iterations_total",
		Help: "Total Monte Carlo iterations completed",
	})

	// SimulationDuration tracks wall-clock time per simulation run.
	SimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmsched_simulation_duration_seconds",
		Help:    "Monte Carlo simulation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

// ObserveCalculation records one calculation.
func ObserveCalculation(outcome string, activities int, elapsed time.Duration) {
	CalculationsTotal.WithLabelValues(outcome).Inc()
	CalculationDuration.Observe(elapsed.Seconds())
	ActivitiesPerCalculation.Observe(float64(activities))
}
