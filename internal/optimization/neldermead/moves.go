package neldermead

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// affineStep computes base + coeff*(to - from) into a fresh slice.
func affineStep(base, from, to []float64, coeff float64) []float64 {
	d := make([]float64, len(base))
	floats.SubTo(d, to, from)
	out := make([]float64, len(base))
	floats.AddScaledTo(out, base, coeff, d)
	return out
}

// eval invokes the objective once and charges the call to the ledger entry
// for the current iteration.
func (o *SimplexOptimizer) eval(x []float64) float64 {
	o.ledger[len(o.ledger)-1]++
	return o.cfg.Objective(x)
}

// reflect mirrors the worst point through the centroid:
// x_r = x_c + coeff*(x_c - x_h).
func (o *SimplexOptimizer) reflect(xh, xc []float64, coeff float64) ([]float64, float64) {
	xr := affineStep(xc, xh, xc, coeff)
	return xr, o.eval(xr)
}

// expand pushes the reflected point further out along the same direction:
// x_e = x_c + coeff*(x_r - x_c).
func (o *SimplexOptimizer) expand(xc, xr []float64, coeff float64) ([]float64, float64) {
	xe := affineStep(xc, xc, xr, coeff)
	return xe, o.eval(xe)
}

// contract pulls back from the centroid toward the worst slot:
// x_s = x_c + beta*(x_h - x_c). There is no feasibility retry here:
// contraction moves toward an already-evaluated point, and a NaN result
// simply fails the downstream acceptance comparison and routes control to
// shrinkage.
func (o *SimplexOptimizer) contract(xc, xh []float64) ([]float64, float64) {
	xs := affineStep(xc, xc, xh, o.cfg.Beta)
	return xs, o.eval(xs)
}

// reflectWithBackoff retries reflection with a halved coefficient while the
// objective comes back NaN. The retry budget is n*10 calls relative to the
// current iteration count; once it runs out the last attempt is returned
// as-is, possibly non-finite, and the caller's acceptance comparisons reject
// it naturally.
func (o *SimplexOptimizer) reflectWithBackoff(xh, xc []float64) ([]float64, float64) {
	coeff := o.cfg.Alpha
	var xr []float64
	fr := math.NaN()
	for math.IsNaN(fr) {
		xr, fr = o.reflect(xh, xc, coeff)
		coeff /= 2
		if o.retryBudgetExceeded() {
			o.warn("could not reflect into the feasibility domain", map[string]interface{}{
				"iteration": o.iters,
				"calls":     o.ledger[len(o.ledger)-1],
			})
			break
		}
	}
	return xr, fr
}

// expandWithBackoff retries expansion under the same halving policy and
// budget as reflection. Only called when the reflected value already improved
// on the best known value.
func (o *SimplexOptimizer) expandWithBackoff(xc, xr []float64) ([]float64, float64) {
	coeff := o.cfg.Gamma
	var xe []float64
	fe := math.NaN()
	for math.IsNaN(fe) {
		xe, fe = o.expand(xc, xr, coeff)
		coeff /= 2
		if o.retryBudgetExceeded() {
			o.warn("could not expand into the feasibility domain", map[string]interface{}{
				"iteration": o.iters,
				"calls":     o.ledger[len(o.ledger)-1],
			})
			break
		}
	}
	return xe, fe
}

// retryBudgetExceeded bounds the halving loops: at most n*10 oracle calls per
// iteration, measured against the current iteration count so later
// iterations are not starved by an expensive early one.
func (o *SimplexOptimizer) retryBudgetExceeded() bool {
	return float64(o.ledger[len(o.ledger)-1])/float64(o.iters) > float64(o.n*10)
}

// shrink moves every vertex except the one in the last slot halfway toward
// that slot: x_i <- x_last + (x_i - x_last)/2.
//
// Note the deliberate quirk: the objective is re-evaluated at the pre-shrink
// position, so the stored value belongs to the old point while the stored
// point is the shrunk one. For a deterministic objective the cached values
// are therefore unchanged by shrinkage and only the geometry contracts. This
// mismatch is kept as the documented contract of the method rather than
// silently corrected.
func (o *SimplexOptimizer) shrink() {
	n := len(o.simplex.vertices) - 1
	anchor := o.simplex.vertices[n].point
	for i := 0; i < n; i++ {
		old := o.simplex.vertices[i].point
		shrunk := affineStep(anchor, anchor, old, 0.5)
		o.simplex.replace(i, shrunk, o.eval(old))
	}
}
