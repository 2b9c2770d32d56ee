// Package objectives provides named benchmark functions for exercising the
// optimizer, drawn from the usual test-function catalogue. Every function
// carries an explicit box feasibility domain and returns NaN outside it,
// which is the sentinel the optimizer's resampling and backoff machinery
// keys on.
package objectives

import (
	"math"
	"sort"

	"github.com/scalarlab/simplexd/internal/optimization"
)

// Func is a named benchmark objective with an explicit feasibility domain.
type Func interface {
	Name() string
	// Eval returns the objective value, or NaN when x lies outside the
	// feasibility domain.
	Eval(x []float64) float64
	// Bounds returns the per-coordinate feasibility box.
	Bounds() (low, high []float64)
}

// Objective adapts a Func to the optimizer's objective type.
func Objective(f Func) optimization.ObjectiveFunction {
	return f.Eval
}

// InsideBounds reports whether x lies inside the feasibility box of fn.
func InsideBounds(x []float64, fn Func) bool {
	low, high := fn.Bounds()
	if len(x) != len(low) {
		return false
	}
	for i := range x {
		if x[i] < low[i] || x[i] > high[i] {
			return false
		}
	}
	return true
}

func uniformBounds(dims int, lo, hi float64) (low, high []float64) {
	low = make([]float64, dims)
	high = make([]float64, dims)
	for i := range low {
		low[i] = lo
		high[i] = hi
	}
	return low, high
}

// Sphere is the sum of squares, minimum 0 at the origin.
type Sphere struct {
	NDim int
}

func (fn Sphere) Name() string { return "sphere" }

func (fn Sphere) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func (fn Sphere) Bounds() (low, high []float64) {
	return uniformBounds(fn.NDim, -100, 100)
}

// Rosenbrock is the banana-valley function, minimum 0 at (1, ..., 1).
type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return "rosenbrock" }

func (fn Rosenbrock) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.NaN()
	}
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

func (fn Rosenbrock) Bounds() (low, high []float64) {
	return uniformBounds(fn.NDim, -5, 10)
}

// Ackley is a heavily multimodal 2-d function, minimum 0 at the origin.
type Ackley struct{}

func (fn Ackley) Name() string { return "ackley" }

func (fn Ackley) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.NaN()
	}
	a := x[0]
	b := x[1]
	return -20*math.Exp(-0.2*math.Sqrt(0.5*(a*a+b*b))) -
		math.Exp(0.5*(math.Cos(2*math.Pi*a)+math.Cos(2*math.Pi*b))) +
		20 + math.E
}

func (fn Ackley) Bounds() (low, high []float64) {
	return uniformBounds(2, -5, 5)
}

// Himmelblau has four global minima of value 0, one of them at (3, 2).
type Himmelblau struct{}

func (fn Himmelblau) Name() string { return "himmelblau" }

func (fn Himmelblau) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.NaN()
	}
	a := x[0]*x[0] + x[1] - 11
	b := x[0] + x[1]*x[1] - 7
	return a*a + b*b
}

func (fn Himmelblau) Bounds() (low, high []float64) {
	return uniformBounds(2, -5, 5)
}

// Booth is a mild 2-d quadratic bowl, minimum 0 at (1, 3).
type Booth struct{}

func (fn Booth) Name() string { return "booth" }

func (fn Booth) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.NaN()
	}
	a := x[0] + 2*x[1] - 7
	b := 2*x[0] + x[1] - 5
	return a*a + b*b
}

func (fn Booth) Bounds() (low, high []float64) {
	return uniformBounds(2, -10, 10)
}

// ByName looks up a benchmark function by name, sized for the given
// dimensionality. Functions defined only in two dimensions reject any other
// dims; dims <= 0 defaults to 2.
func ByName(name string, dims int) (Func, error) {
	if dims <= 0 {
		dims = 2
	}
	switch name {
	case "sphere":
		return Sphere{NDim: dims}, nil
	case "rosenbrock":
		return Rosenbrock{NDim: dims}, nil
	case "ackley", "himmelblau", "booth":
		if dims != 2 {
			return nil, optimization.WrapErrorf(optimization.ErrDimensionMismatch,
				"objective %q is only defined for 2 dimensions, got %d", name, dims).
				WithComponent("objectives")
		}
		switch name {
		case "ackley":
			return Ackley{}, nil
		case "himmelblau":
			return Himmelblau{}, nil
		default:
			return Booth{}, nil
		}
	default:
		return nil, optimization.NewErrorf("unknown objective %q", name).
			WithComponent("objectives")
	}
}

// Names returns the registered objective names, sorted.
func Names() []string {
	names := []string{"sphere", "rosenbrock", "ackley", "himmelblau", "booth"}
	sort.Strings(names)
	return names
}
