package optimization

import (
	"context"
)

// ObjectiveFunction maps a point to a scalar objective value. The optimizer is
// a zero-order method: it only ever queries values, never derivatives. A
// function signals that a point lies outside its feasibility domain by
// returning NaN.
type ObjectiveFunction func(x []float64) float64

// Optimizer is the interface consumed by the server and other collaborators.
type Optimizer interface {
	// Optimize runs the search to termination. Both convergence and an
	// exhausted iteration budget are normal outcomes, not errors.
	Optimize(ctx context.Context) (*Result, error)

	// BestSolution returns the best vertex found so far.
	BestSolution() *Solution

	// History returns the recorded simplex snapshots.
	History() []IterationRecord

	// OracleCalls returns the per-iteration objective call counts. Entry 0
	// covers initialization.
	OracleCalls() []int
}

// OptimizerConfig contains the construction parameters for a simplex
// optimizer.
type OptimizerConfig struct {
	// Objective is the function to minimize.
	Objective ObjectiveFunction

	// Dimensions is the number of variables n; the simplex holds n+1 points.
	Dimensions int

	// EArea and EValue are the stopping thresholds on the simplex area and on
	// the maximum pairwise spread of the objective values.
	EArea  float64
	EValue float64

	// MaxIterations bounds the main loop.
	MaxIterations int

	// Alpha, Beta and Gamma are the reflection, contraction and expansion
	// coefficients. All three must be strictly positive.
	Alpha float64
	Beta  float64
	Gamma float64

	// InitialSimplex optionally seeds the search with n+1 points. When nil,
	// vertices are sampled uniformly from [SampleMin, SampleMax) per
	// coordinate until the objective is finite.
	InitialSimplex [][]float64

	// SampleMin and SampleMax delimit the random initialization region.
	// Callers whose feasibility domain lies elsewhere should override them or
	// supply InitialSimplex.
	SampleMin float64
	SampleMax float64

	// RandomSeed makes initialization reproducible. Zero seeds from the
	// current time.
	RandomSeed int64
}

// DefaultOptimizerConfig returns a config with the classic Nelder-Mead
// coefficients and a two-dimensional search space.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Dimensions:    2,
		EArea:         1e-6,
		EValue:        1e-6,
		MaxIterations: 200,
		Alpha:         1,
		Beta:          0.5,
		Gamma:         2,
		SampleMin:     -10,
		SampleMax:     0,
	}
}

// Solution is a single vertex: a point and its cached objective value.
type Solution struct {
	Point []float64
	Value float64
}

// Clone returns a deep copy of the solution.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	return &Solution{
		Point: append([]float64(nil), s.Point...),
		Value: s.Value,
	}
}

// IterationRecord is a snapshot of the simplex taken after an accepted
// update. Records are append-only and exist for post-hoc inspection and
// plotting; the optimizer never reads them back.
type IterationRecord struct {
	Iteration int
	Points    [][]float64
	Values    []float64
}

// Status describes where the optimizer is in its lifecycle.
type Status int

const (
	StatusInitialized Status = iota
	StatusIterating
	StatusConverged
	StatusMaxIterations
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusIterating:
		return "iterating"
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max_iterations_reached"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusConverged || s == StatusMaxIterations
}

// Result contains the final state of an optimization run.
type Result struct {
	// Best is the lowest-value vertex of the final simplex.
	Best *Solution

	// Simplex holds the full final simplex.
	Simplex []Solution

	// Iterations is the number of main-loop iterations performed.
	Iterations int

	// Status is the terminal state: converged or iteration budget exhausted.
	Status Status

	// History holds the initial simplex plus one snapshot per accepted
	// update.
	History []IterationRecord

	// OracleCalls is the per-iteration call ledger; entry 0 counts
	// initialization calls.
	OracleCalls []int

	// Area and ValueSpread are the final convergence metrics.
	Area        float64
	ValueSpread float64
}
