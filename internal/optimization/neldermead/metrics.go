package neldermead

import (
	"math"
)

// area returns half the absolute shoelace sum over the simplex vertices
// projected onto their first two coordinates. This is the true polygon area
// only for n == 2; for any other dimensionality it is a projection heuristic
// used as a generic scalar stopping signal, not an n-dimensional volume.
func (s *simplex) area() float64 {
	n := len(s.vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + n - 1) % n
		xi := coord(s.vertices[i].point, 0)
		yi := coord(s.vertices[i].point, 1)
		xj := coord(s.vertices[j].point, 0)
		yj := coord(s.vertices[j].point, 1)
		sum += xi*yj - xj*yi
	}
	return 0.5 * math.Abs(sum)
}

// coord reads coordinate k of a point, treating missing coordinates as zero
// so the projection is defined for one-dimensional problems.
func coord(p []float64, k int) float64 {
	if k >= len(p) {
		return 0
	}
	return p[k]
}

// maxValueSpread returns the maximum absolute difference over every
// unordered pair of cached objective values.
func (s *simplex) maxValueSpread() float64 {
	max := 0.0
	for i := 0; i < len(s.vertices); i++ {
		for j := i + 1; j < len(s.vertices); j++ {
			d := math.Abs(s.vertices[i].value - s.vertices[j].value)
			if d > max {
				max = d
			}
		}
	}
	return max
}
