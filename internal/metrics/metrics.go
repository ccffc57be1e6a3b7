// Package metrics exposes Prometheus collectors for the drafting
// pipeline. All collectors are registered on the default registry and
// served by the API server's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts finished turns by terminal outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftmate",
		Name:      "turns_total",
		Help:      "Finished workflow turns by terminal outcome.",
	}, []string{"outcome"})

	// RetriesTotal counts FAIL-triggered redraft passes.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "draftmate",
		Name:      "retries_total",
		Help:      "Redraft passes triggered by validation failures.",
	})

	// StepFallbacksTotal counts degraded step results by step name.
	StepFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftmate",
		Name:      "step_fallbacks_total",
		Help:      "Step agent fallbacks taken after completion or parse failures.",
	}, []string{"step"})

	// StepDuration observes per-step latency.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draftmate",
		Name:      "step_duration_seconds",
		Help:      "Step agent execution time.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"step"})

	// PersistenceFailuresTotal counts continuity writes that failed after
	// a PASS outcome was already decided.
	PersistenceFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "draftmate",
		Name:      "persistence_failures_total",
		Help:      "Continuity store writes that failed on a PASS turn.",
	})
)

// ObserveStep records one step execution.
func ObserveStep(step string, start time.Time) {
	StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}
