package optimization

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix returns the snapshot's points as an (n+1)-by-n dense matrix, one
// vertex per row. Plotting and analysis collaborators consume this form
// directly.
func (r IterationRecord) Matrix() *mat.Dense {
	rows := len(r.Points)
	if rows == 0 {
		return &mat.Dense{}
	}
	cols := len(r.Points[0])
	m := mat.NewDense(rows, cols, nil)
	for i, p := range r.Points {
		for j, v := range p {
			m.Set(i, j, v)
		}
	}
	return m
}

// ValueVector returns the snapshot's objective values as a dense vector in
// vertex order.
func (r IterationRecord) ValueVector() *mat.VecDense {
	if len(r.Values) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(r.Values), append([]float64(nil), r.Values...))
}
