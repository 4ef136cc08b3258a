package transition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeCommitted     = "committed"
	outcomeInapplicable  = SkipInapplicable
	outcomeGuardRejected = SkipGuardRejected
	outcomeError         = "error"
)

// Wait outcome constants.
const (
	WaitSatisfied     = "satisfied"
	WaitTimedOut      = "timeout"
	WaitCanceled      = "canceled"
	WaitUninitialized = "uninitialized"
	WaitReentrant     = "reentrant"
)

// Metric definitions with appropriate labels.
var (
	// invocationsTotal counts transition attempts by transition name and outcome.
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_invocations_total",
		Help: "Total number of transition invocations by transition and outcome",
	}, []string{"transition", "outcome"})

	// invocationDuration tracks time spent from guard evaluation to commit or failure.
	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_duration_seconds",
		Help:    "Duration of transition execution by transition and outcome",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"transition", "outcome"})

	// waitTotal counts completed WaitForState calls by outcome.
	waitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_wait_total",
		Help: "Total number of wait-for-state calls by outcome",
	}, []string{"outcome"})

	// waiters tracks goroutines currently blocked in WaitForState.
	waiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transition_waiters",
		Help: "Number of goroutines currently blocked waiting for a state",
	})

	// machinesInitialized counts lazy machine initializations.
	machinesInitialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transition_machines_initialized_total",
		Help: "Total number of machines initialized by their first transition",
	})
)

func sanitizeTransition(name string) string {
	if name == "" {
		return "unnamed"
	}

	return name
}
