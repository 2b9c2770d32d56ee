// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scalarlab/simplexd/internal/optimization"
)

const namespace = "simplexd"

// Collector aggregates counters over all optimization runs served by this
// process. Passing a nil registerer creates an unregistered collector, which
// is convenient in tests.
type Collector struct {
	oracleCalls   prometheus.Counter
	iterations    prometheus.Counter
	optimizations *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// NewCollector creates and registers the service metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		oracleCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Objective function evaluations across all optimization runs.",
		}),
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Main-loop iterations across all optimization runs.",
		}),
		optimizations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizations_total",
			Help:      "Finished optimization runs by outcome.",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of optimization runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records one finished optimization run. The result may be nil
// for runs that failed or were cancelled before producing one.
func (c *Collector) ObserveRun(outcome string, result *optimization.Result, elapsed time.Duration) {
	c.optimizations.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())

	if result == nil {
		return
	}
	total := 0
	for _, calls := range result.OracleCalls {
		total += calls
	}
	c.oracleCalls.Add(float64(total))
	c.iterations.Add(float64(result.Iterations))
}
