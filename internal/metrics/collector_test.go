package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/scalarlab/simplexd/internal/optimization"
)

func TestObserveRun(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	result := &optimization.Result{
		Iterations:  7,
		Status:      optimization.StatusConverged,
		OracleCalls: []int{3, 2, 2, 1, 2, 2, 1, 2},
	}

	c.ObserveRun(result.Status.String(), result, 50*time.Millisecond)

	assert.Equal(t, 15.0, testutil.ToFloat64(c.oracleCalls))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.iterations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.optimizations.WithLabelValues("converged")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.optimizations.WithLabelValues("failed")))
}

func TestObserveRunWithoutResult(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveRun("failed", nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.optimizations.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.oracleCalls))
}
