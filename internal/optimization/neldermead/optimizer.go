// Package neldermead implements the Nelder-Mead simplex method: a
// derivative-free direct search that minimizes a scalar objective of several
// real variables by deforming a simplex of n+1 candidate points through the
// four classic moves (reflection, expansion, contraction, shrinkage).
//
// The optimizer owns all of its mutable state: the current simplex, the
// append-only iteration history, and the per-iteration oracle-call ledger.
// External consumers only ever receive copies. A single Optimize call is one
// sequential unit of work; the only suspension point is a cooperative
// cancellation check between iterations.
package neldermead

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/scalarlab/simplexd/internal/optimization"
)

const component = "neldermead"

// initCallWarnThreshold is the number of initialization oracle calls above
// which random sampling is considered wasteful enough to warn about.
const initCallWarnThreshold = 3

// Logger is the minimal logging surface the optimizer needs for its
// non-fatal infeasibility diagnostics. A nil Logger disables them.
type Logger interface {
	Warn(msg string, fields ...map[string]interface{})
}

// SimplexOptimizer runs the Nelder-Mead method over a fixed-size simplex.
// It is not safe for concurrent use; one instance owns one search.
type SimplexOptimizer struct {
	cfg    optimization.OptimizerConfig
	logger Logger
	rng    *rand.Rand

	n       int
	simplex *simplex

	// ledger[i] counts oracle calls during iteration i; entry 0 covers
	// initialization. Append-only.
	ledger []int

	// history holds the initial simplex plus one snapshot per accepted
	// update. Append-only.
	history []optimization.IterationRecord

	iters       int
	status      optimization.Status
	area        float64
	valueSpread float64
}

// New constructs a SimplexOptimizer and initializes its simplex, either from
// the supplied points or by random sampling. Construction fails on
// non-positive coefficients and on supplied simplexes with non-finite
// objective values; transient infeasibility during random sampling is
// retried, not surfaced.
func New(cfg optimization.OptimizerConfig, logger Logger) (*SimplexOptimizer, error) {
	if cfg.Objective == nil {
		return nil, optimization.NewError("objective function is required").
			WithComponent(component).WithOperation("construct")
	}
	if cfg.Alpha <= 0 || cfg.Beta <= 0 || cfg.Gamma <= 0 {
		return nil, optimization.WrapErrorf(optimization.ErrInvalidCoefficient,
			"alpha=%v beta=%v gamma=%v", cfg.Alpha, cfg.Beta, cfg.Gamma).
			WithComponent(component).WithOperation("construct")
	}

	if cfg.Dimensions < 1 {
		cfg.Dimensions = 2
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 200
	}
	if cfg.SampleMin == 0 && cfg.SampleMax == 0 {
		cfg.SampleMin = -10
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// history and ledger grow by appending as iterations run. MaxIterations
	// is an upper bound chosen by the caller, not a size hint; sizing
	// allocations from it would let a large budget reserve memory before any
	// work happens.
	o := &SimplexOptimizer{
		cfg:     cfg,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		n:       cfg.Dimensions,
		simplex: newSimplex(cfg.Dimensions),
		ledger:  []int{0},
		status:  optimization.StatusInitialized,
	}

	var err error
	if cfg.InitialSimplex != nil {
		err = o.initFromPoints(cfg.InitialSimplex)
	} else {
		err = o.initFromSampling()
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

// initFromPoints seeds the simplex from caller-supplied points, evaluating
// the objective once per point. Any non-finite value aborts construction.
func (o *SimplexOptimizer) initFromPoints(points [][]float64) error {
	if len(points) != o.n+1 {
		return optimization.WrapErrorf(optimization.ErrInvalidInitialSimplex,
			"need %d points for %d dimensions, got %d", o.n+1, o.n, len(points)).
			WithComponent(component).WithOperation("construct")
	}
	for i, p := range points {
		if len(p) != o.n {
			return optimization.WrapErrorf(optimization.ErrInvalidInitialSimplex,
				"point %d has %d coordinates, want %d", i, len(p), o.n).
				WithComponent(component).WithOperation("construct")
		}
		point := append([]float64(nil), p...)
		value := o.eval(point)
		if math.IsNaN(value) {
			return optimization.WrapErrorf(optimization.ErrInvalidInitialSimplex,
				"objective is NaN at supplied point %v", point).
				WithComponent(component).WithOperation("construct")
		}
		o.simplex.replace(i, point, value)
	}
	return nil
}

// initFromSampling fills the simplex with uniform samples from the
// configured region, resampling each vertex until the objective is finite.
// Every attempt is charged to the initialization ledger entry.
func (o *SimplexOptimizer) initFromSampling() error {
	if o.cfg.SampleMin >= o.cfg.SampleMax {
		return optimization.NewErrorf("sampling region [%v, %v) is empty",
			o.cfg.SampleMin, o.cfg.SampleMax).
			WithComponent(component).WithOperation("construct")
	}

	width := o.cfg.SampleMax - o.cfg.SampleMin
	for i := 0; i <= o.n; i++ {
		value := math.NaN()
		var point []float64
		for math.IsNaN(value) {
			point = make([]float64, o.n)
			for j := range point {
				point[j] = o.cfg.SampleMin + o.rng.Float64()*width
			}
			value = o.eval(point)
		}
		o.simplex.replace(i, point, value)
	}

	if o.ledger[0] > initCallWarnThreshold {
		o.warn("simplex initialization needed extra oracle calls; adjust the sampling region or supply points explicitly",
			map[string]interface{}{"calls": o.ledger[0]})
	}
	return nil
}

// Optimize runs the main loop until the area and value-spread thresholds are
// met or the iteration budget runs out. Both outcomes are normal; the best
// known simplex is always available afterwards. The context is only checked
// between iterations, so a single iteration is non-preemptible.
func (o *SimplexOptimizer) Optimize(ctx context.Context) (*optimization.Result, error) {
	o.updateState()
	o.status = optimization.StatusIterating

	for o.area > o.cfg.EArea && o.valueSpread > o.cfg.EValue && o.iters < o.cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		o.ledger = append(o.ledger, 0)
		o.iters++

		o.simplex.sortByValue()
		xc := o.simplex.centroid()
		last := len(o.simplex.vertices) - 1
		worst := o.simplex.worst()
		xh := worst.point

		fl := o.simplex.vertices[0].value
		fg := o.simplex.vertices[last-1].value
		fh := worst.value

		xr, fr := o.reflectWithBackoff(xh, xc)

		switch {
		case fr < fl:
			// Reflection beat the best vertex; try to go further.
			xe, fe := o.expandWithBackoff(xc, xr)
			if fe < fl {
				o.simplex.replace(last, xe, fe)
			} else {
				o.simplex.replace(last, xr, fr)
			}
			o.updateState()

		case fr < fg:
			o.simplex.replace(last, xr, fr)
			o.updateState()

		default:
			if fr < fh {
				// Tentative: the worst slot takes the reflection, but no
				// snapshot until contraction decides.
				o.simplex.replace(last, xr, fr)
			}
			// Contraction pulls toward the current worst slot, which holds
			// the tentative reflection when one was taken.
			xs, fs := o.contract(xc, o.simplex.vertices[last].point)
			if fs < fh {
				o.simplex.replace(last, xs, fs)
			} else {
				o.shrink()
			}
			o.updateState()
		}
	}

	if o.area <= o.cfg.EArea || o.valueSpread <= o.cfg.EValue {
		o.status = optimization.StatusConverged
	} else {
		o.status = optimization.StatusMaxIterations
	}

	return o.result(), nil
}

// updateState appends a snapshot of the current simplex and recomputes the
// stopping metrics. Called once at the start of a run and after every
// accepted update.
func (o *SimplexOptimizer) updateState() {
	o.history = append(o.history, optimization.IterationRecord{
		Iteration: o.iters,
		Points:    o.simplex.points(),
		Values:    o.simplex.values(),
	})
	o.area = o.simplex.area()
	o.valueSpread = o.simplex.maxValueSpread()
}

func (o *SimplexOptimizer) result() *optimization.Result {
	return &optimization.Result{
		Best:        o.BestSolution(),
		Simplex:     o.FinalSimplex(),
		Iterations:  o.iters,
		Status:      o.status,
		History:     o.History(),
		OracleCalls: o.OracleCalls(),
		Area:        o.area,
		ValueSpread: o.valueSpread,
	}
}

// BestSolution returns a copy of the lowest-value vertex.
func (o *SimplexOptimizer) BestSolution() *optimization.Solution {
	best := 0
	for i, v := range o.simplex.vertices {
		if v.value < o.simplex.vertices[best].value {
			best = i
		}
	}
	v := o.simplex.vertices[best]
	return &optimization.Solution{
		Point: append([]float64(nil), v.point...),
		Value: v.value,
	}
}

// FinalSimplex returns a copy of the full simplex in slot order.
func (o *SimplexOptimizer) FinalSimplex() []optimization.Solution {
	out := make([]optimization.Solution, len(o.simplex.vertices))
	for i, v := range o.simplex.vertices {
		out[i] = optimization.Solution{
			Point: append([]float64(nil), v.point...),
			Value: v.value,
		}
	}
	return out
}

// History returns the recorded snapshots. The records themselves already
// hold copies, so sharing the slice tail is safe for readers.
func (o *SimplexOptimizer) History() []optimization.IterationRecord {
	return append([]optimization.IterationRecord(nil), o.history...)
}

// OracleCalls returns a copy of the per-iteration call ledger.
func (o *SimplexOptimizer) OracleCalls() []int {
	return append([]int(nil), o.ledger...)
}

// Iterations returns the number of main-loop iterations performed so far.
func (o *SimplexOptimizer) Iterations() int {
	return o.iters
}

// Status returns the optimizer's lifecycle state.
func (o *SimplexOptimizer) Status() optimization.Status {
	return o.status
}

// Area returns the most recent simplex area metric.
func (o *SimplexOptimizer) Area() float64 {
	return o.area
}

// ValueSpread returns the most recent max pairwise value difference.
func (o *SimplexOptimizer) ValueSpread() float64 {
	return o.valueSpread
}

func (o *SimplexOptimizer) warn(msg string, fields map[string]interface{}) {
	if o.logger != nil {
		o.logger.Warn(msg, fields)
	}
}
