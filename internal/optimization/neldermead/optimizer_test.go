package neldermead

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarlab/simplexd/internal/optimization"
)

// sphere is the sum-of-squares objective: convex, unique minimum at the
// origin.
func sphere(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// boxedSphere is feasible only when every coordinate lies in [low, high].
func boxedSphere(low, high float64) optimization.ObjectiveFunction {
	return func(x []float64) float64 {
		for _, v := range x {
			if v < low || v > high {
				return math.NaN()
			}
		}
		return sphere(x)
	}
}

type capturingLogger struct {
	warnings []string
}

func (l *capturingLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.warnings = append(l.warnings, msg)
}

func sphereConfig() optimization.OptimizerConfig {
	cfg := optimization.DefaultOptimizerConfig()
	cfg.Objective = sphere
	cfg.RandomSeed = 42
	return cfg
}

func TestNewDoesNotReserveMemoryForIterationBudget(t *testing.T) {
	cfg := sphereConfig()
	cfg.MaxIterations = 10_000_000

	o, err := New(cfg, nil)
	require.NoError(t, err)

	// The budget only bounds the loop; the history must grow with actual
	// iterations, so a huge budget on a cheap request cannot allocate
	// gigabytes at construction.
	assert.Empty(t, o.history)
	assert.LessOrEqual(t, cap(o.history), 64)
}

func TestNewRejectsInvalidCoefficients(t *testing.T) {
	tests := []struct {
		name               string
		alpha, beta, gamma float64
	}{
		{"zero alpha", 0, 0.5, 2},
		{"negative beta", 1, -0.5, 2},
		{"zero gamma", 1, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sphereConfig()
			cfg.Alpha = tt.alpha
			cfg.Beta = tt.beta
			cfg.Gamma = tt.gamma

			_, err := New(cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, optimization.ErrInvalidCoefficient))
		})
	}
}

func TestNewRequiresObjective(t *testing.T) {
	cfg := optimization.DefaultOptimizerConfig()
	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestNewRejectsBadInitialSimplex(t *testing.T) {
	tests := []struct {
		name      string
		objective optimization.ObjectiveFunction
		points    [][]float64
	}{
		{
			name:      "infeasible point",
			objective: boxedSphere(-2, 2),
			points:    [][]float64{{1, 1}, {1, -1}, {5, 5}},
		},
		{
			name:      "wrong point count",
			objective: sphere,
			points:    [][]float64{{1, 1}, {1, -1}},
		},
		{
			name:      "wrong coordinate count",
			objective: sphere,
			points:    [][]float64{{1, 1}, {1, -1}, {0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sphereConfig()
			cfg.Objective = tt.objective
			cfg.InitialSimplex = tt.points

			_, err := New(cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, optimization.ErrInvalidInitialSimplex))
		})
	}
}

func TestNewRejectsEmptySamplingRegion(t *testing.T) {
	cfg := sphereConfig()
	cfg.SampleMin = 5
	cfg.SampleMax = 5

	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestTransformFormulas(t *testing.T) {
	xc := []float64{0, 0}
	xh := []float64{2, 2}

	// Reflection with alpha=1: x_r = x_c + 1*(x_c - x_h).
	assert.Equal(t, []float64{-2, -2}, affineStep(xc, xh, xc, 1))

	// Expansion with gamma=2 from the reflected point.
	xr := []float64{-2, -2}
	assert.Equal(t, []float64{-4, -4}, affineStep(xc, xc, xr, 2))

	// Contraction with beta=0.5 back toward the worst point.
	assert.Equal(t, []float64{1, 1}, affineStep(xc, xc, xh, 0.5))
}

func TestSuppliedSimplexInitialization(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}

	o, err := New(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, o.OracleCalls(), "one evaluation per supplied point")
	assert.Equal(t, optimization.StatusInitialized, o.Status())

	// The optimizer must not alias the caller's slices.
	cfg.InitialSimplex[0][0] = 99
	assert.Equal(t, 1.0, o.simplex.vertices[0].point[0])
}

func TestRandomInitializationCountsCalls(t *testing.T) {
	logger := &capturingLogger{}
	cfg := sphereConfig()

	o, err := New(cfg, logger)
	require.NoError(t, err)

	// Sphere is finite everywhere, so each of the 3 vertices takes exactly
	// one call and no diagnostic fires.
	assert.Equal(t, []int{3}, o.OracleCalls())
	assert.Empty(t, logger.warnings)
}

func TestRandomInitializationRetriesInfeasible(t *testing.T) {
	logger := &capturingLogger{}
	cfg := sphereConfig()
	// Feasible on only a sliver of the default sampling region, forcing
	// resampling.
	cfg.Objective = boxedSphere(-1, 0)

	o, err := New(cfg, logger)
	require.NoError(t, err)

	calls := o.OracleCalls()
	require.Len(t, calls, 1)
	assert.Greater(t, calls[0], 3)
	assert.NotEmpty(t, logger.warnings, "expected an infeasible-sampling diagnostic")

	for _, v := range o.simplex.vertices {
		assert.False(t, math.IsNaN(v.value), "settled simplex must hold finite values")
	}
}

func TestFirstIterationContractsOnWorseReflection(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}
	cfg.MaxIterations = 1

	o, err := New(cfg, nil)
	require.NoError(t, err)

	result, err := o.Optimize(context.Background())
	require.NoError(t, err)

	// Sorted simplex: (-1,0)=1, (1,1)=2, (1,-1)=2. Centroid of the two best
	// is (0, 0.5); reflecting (1,-1) gives (-1, 2) with value 5, worse than
	// everything, so the iteration contracts to (0.5, -0.25) = 0.3125.
	require.Equal(t, 1, result.Iterations)
	require.Len(t, result.History, 2)

	after := result.History[1]
	assert.InDeltaSlice(t, []float64{0.5, -0.25}, after.Points[2], 1e-12)
	assert.InDelta(t, 0.3125, after.Values[2], 1e-12)

	// One reflection plus one contraction.
	assert.Equal(t, []int{3, 2}, result.OracleCalls)
	assert.Equal(t, optimization.StatusMaxIterations, result.Status)
}

func TestOptimizeSphereRoundTrip(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}

	o, err := New(cfg, nil)
	require.NoError(t, err)

	result, err := o.Optimize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, optimization.StatusConverged, result.Status, "must not exhaust the budget")
	assert.Less(t, result.Iterations, cfg.MaxIterations)

	require.NotNil(t, result.Best)
	assert.InDelta(t, 0.0, result.Best.Point[0], 1e-3)
	assert.InDelta(t, 0.0, result.Best.Point[1], 1e-3)

	// Ledger: one entry per iteration plus the initialization entry, every
	// entry at least one call.
	require.Len(t, result.OracleCalls, result.Iterations+1)
	for i, calls := range result.OracleCalls {
		assert.GreaterOrEqual(t, calls, 1, "ledger entry %d", i)
	}

	// The recorded best value never gets worse, and the stopping metrics
	// stay non-negative on every snapshot.
	prevBest := math.Inf(1)
	for i, rec := range result.History {
		s := testSimplex(rec.Points, rec.Values)
		assert.GreaterOrEqual(t, s.area(), 0.0, "snapshot %d", i)
		assert.GreaterOrEqual(t, s.maxValueSpread(), 0.0, "snapshot %d", i)

		best := rec.Values[0]
		for _, v := range rec.Values[1:] {
			if v < best {
				best = v
			}
		}
		assert.LessOrEqual(t, best, prevBest, "best value regressed at snapshot %d", i)
		prevBest = best
	}

	// Final metrics satisfy at least one stopping threshold.
	assert.True(t, result.Area <= cfg.EArea || result.ValueSpread <= cfg.EValue)
}

func TestOptimizeWithinFeasibilityBox(t *testing.T) {
	cfg := sphereConfig()
	cfg.Objective = boxedSphere(-3, 3)
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}

	o, err := New(cfg, &capturingLogger{})
	require.NoError(t, err)

	result, err := o.Optimize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, optimization.StatusConverged, result.Status)
	assert.InDelta(t, 0.0, result.Best.Value, 1e-3)
}

func TestOptimizeCancellation(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}

	o, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Optimize(ctx)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestShrinkKeepsPreShrinkValues(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{2, 2}, {4, 4}, {0, 0}}

	o, err := New(cfg, nil)
	require.NoError(t, err)

	o.shrink()

	// Geometry halves toward the last slot while the cached values still
	// belong to the pre-shrink points.
	assert.Equal(t, []float64{1, 1}, o.simplex.vertices[0].point)
	assert.Equal(t, 8.0, o.simplex.vertices[0].value)
	assert.Equal(t, []float64{2, 2}, o.simplex.vertices[1].point)
	assert.Equal(t, 32.0, o.simplex.vertices[1].value)
	assert.Equal(t, []float64{0, 0}, o.simplex.vertices[2].point)

	// Two re-evaluations charged to the current ledger entry.
	assert.Equal(t, []int{5}, o.OracleCalls())
}

func TestAccessorsReturnCopies(t *testing.T) {
	cfg := sphereConfig()
	cfg.InitialSimplex = [][]float64{{1, 1}, {1, -1}, {-1, 0}}

	o, err := New(cfg, nil)
	require.NoError(t, err)

	best := o.BestSolution()
	best.Point[0] = 99
	assert.NotEqual(t, 99.0, o.BestSolution().Point[0])

	final := o.FinalSimplex()
	final[0].Point[0] = 99
	assert.NotEqual(t, 99.0, o.FinalSimplex()[0].Point[0])

	ledger := o.OracleCalls()
	ledger[0] = 99
	assert.NotEqual(t, 99, o.OracleCalls()[0])
}
