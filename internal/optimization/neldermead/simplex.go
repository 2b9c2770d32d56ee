package neldermead

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// vertex pairs a point with its cached objective value. A point is replaced
// wholesale when its slot is updated, never mutated in place.
type vertex struct {
	point []float64
	value float64
}

// simplex is a fixed-size collection of exactly n+1 vertices. Slot
// replacement overwrites a whole (point, value) pair; the backing slice never
// resizes after construction. Between iterations every cached value matches
// the objective at its point.
type simplex struct {
	vertices []vertex
}

func newSimplex(n int) *simplex {
	return &simplex{vertices: make([]vertex, n+1)}
}

// sortByValue orders vertices ascending by objective value: slot 0 holds the
// best vertex, the last slot the worst. Ties keep their relative order.
func (s *simplex) sortByValue() {
	sort.SliceStable(s.vertices, func(i, j int) bool {
		return s.vertices[i].value < s.vertices[j].value
	})
}

// centroid returns the center of gravity of all vertices except the one in
// the last slot. Call after sortByValue so the excluded vertex is the worst.
func (s *simplex) centroid() []float64 {
	n := len(s.vertices) - 1
	c := make([]float64, len(s.vertices[0].point))
	for _, v := range s.vertices[:n] {
		floats.Add(c, v.point)
	}
	floats.Scale(1/float64(n), c)
	return c
}

func (s *simplex) replace(i int, point []float64, value float64) {
	s.vertices[i] = vertex{point: point, value: value}
}

func (s *simplex) worst() vertex {
	return s.vertices[len(s.vertices)-1]
}

// points returns deep copies of all vertex positions in slot order.
func (s *simplex) points() [][]float64 {
	out := make([][]float64, len(s.vertices))
	for i, v := range s.vertices {
		out[i] = append([]float64(nil), v.point...)
	}
	return out
}

// values returns a copy of the cached objective values in slot order.
func (s *simplex) values() []float64 {
	out := make([]float64, len(s.vertices))
	for i, v := range s.vertices {
		out[i] = v.value
	}
	return out
}
