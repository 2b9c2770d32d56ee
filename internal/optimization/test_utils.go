package optimization

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// testObjectiveFunc is a simple quadratic objective for testing: the sum of
// squares, with its unique minimum at the origin.
func testObjectiveFunc(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// testBoundedObjectiveFunc wraps testObjectiveFunc with a box feasibility
// domain: outside [low, high] on any coordinate the objective is NaN.
func testBoundedObjectiveFunc(low, high float64) ObjectiveFunction {
	return func(x []float64) float64 {
		for _, v := range x {
			if v < low || v > high {
				return math.NaN()
			}
		}
		return testObjectiveFunc(x)
	}
}

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// assertMatEqual checks if two matrices are approximately equal
func assertMatEqual(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()

	rg, cg := got.Dims()
	rw, cw := want.Dims()
	if rg != rw || cg != cw {
		t.Fatalf("matrix dimensions mismatch: got %dx%d, want %dx%d", rg, cg, rw, cw)
	}

	for i := 0; i < rg; i++ {
		for j := 0; j < cg; j++ {
			g := got.At(i, j)
			w := want.At(i, j)
			if math.Abs(g-w) > tol {
				t.Fatalf("at (%d,%d): got %v, want %v (tolerance %v)", i, j, g, w, tol)
			}
		}
	}
}
