package neldermead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSimplex(points [][]float64, values []float64) *simplex {
	s := newSimplex(len(points) - 1)
	for i := range points {
		s.replace(i, append([]float64(nil), points[i]...), values[i])
	}
	return s
}

func TestSortByValue(t *testing.T) {
	s := testSimplex(
		[][]float64{{3, 3}, {1, 1}, {2, 2}},
		[]float64{9, 1, 4},
	)

	s.sortByValue()

	assert.Equal(t, []float64{1, 4, 9}, s.values())
	assert.Equal(t, []float64{1, 1}, s.vertices[0].point)
	assert.Equal(t, []float64{3, 3}, s.vertices[2].point)
}

func TestSortByValueStableTies(t *testing.T) {
	s := testSimplex(
		[][]float64{{1, 0}, {2, 0}, {0, 0}},
		[]float64{5, 5, 1},
	)

	s.sortByValue()

	// The two tied vertices keep their relative order.
	assert.Equal(t, []float64{0, 0}, s.vertices[0].point)
	assert.Equal(t, []float64{1, 0}, s.vertices[1].point)
	assert.Equal(t, []float64{2, 0}, s.vertices[2].point)
}

func TestCentroidExcludesWorst(t *testing.T) {
	// A, B, C sorted so C is worst: centroid must be (A+B)/2.
	s := testSimplex(
		[][]float64{{0, 0}, {2, 2}, {10, 10}},
		[]float64{0, 1, 9},
	)
	s.sortByValue()

	assert.Equal(t, []float64{1, 1}, s.centroid())
}

func TestPointsAndValuesAreCopies(t *testing.T) {
	s := testSimplex(
		[][]float64{{1, 2}, {3, 4}, {5, 6}},
		[]float64{1, 2, 3},
	)

	pts := s.points()
	pts[0][0] = 99
	assert.Equal(t, 1.0, s.vertices[0].point[0], "points() must deep-copy")

	vals := s.values()
	vals[0] = 99
	assert.Equal(t, 1.0, s.vertices[0].value, "values() must copy")
}

func TestReplaceOverwritesWholeSlot(t *testing.T) {
	s := testSimplex(
		[][]float64{{1, 1}, {2, 2}, {3, 3}},
		[]float64{2, 8, 18},
	)

	s.replace(2, []float64{0, 0}, 0)

	assert.Equal(t, []float64{0, 0}, s.vertices[2].point)
	assert.Equal(t, 0.0, s.vertices[2].value)
	assert.Len(t, s.vertices, 3, "replacement must not resize the simplex")
}
