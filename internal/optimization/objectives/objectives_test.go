package objectives

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarlab/simplexd/internal/optimization"
)

func TestKnownOptima(t *testing.T) {
	tests := []struct {
		fn    Func
		point []float64
	}{
		{Sphere{NDim: 2}, []float64{0, 0}},
		{Sphere{NDim: 4}, []float64{0, 0, 0, 0}},
		{Rosenbrock{NDim: 2}, []float64{1, 1}},
		{Rosenbrock{NDim: 3}, []float64{1, 1, 1}},
		{Ackley{}, []float64{0, 0}},
		{Himmelblau{}, []float64{3, 2}},
		{Himmelblau{}, []float64{-2.805118, 3.131312}},
		{Booth{}, []float64{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.fn.Name(), func(t *testing.T) {
			assert.InDelta(t, 0.0, tt.fn.Eval(tt.point), 1e-6)
		})
	}
}

func TestEvalOutsideDomainIsNaN(t *testing.T) {
	tests := []struct {
		fn    Func
		point []float64
	}{
		{Sphere{NDim: 2}, []float64{101, 0}},
		{Rosenbrock{NDim: 2}, []float64{-6, 0}},
		{Ackley{}, []float64{5.1, 0}},
		{Himmelblau{}, []float64{0, -9}},
		{Booth{}, []float64{11, 11}},
		// Dimensionality mismatch is also out of domain.
		{Sphere{NDim: 2}, []float64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.fn.Name(), func(t *testing.T) {
			assert.True(t, math.IsNaN(tt.fn.Eval(tt.point)))
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		fn, err := ByName(name, 2)
		require.NoError(t, err, name)
		assert.Equal(t, name, fn.Name())
	}

	fn, err := ByName("sphere", 5)
	require.NoError(t, err)
	low, high := fn.Bounds()
	assert.Len(t, low, 5)
	assert.Len(t, high, 5)

	// dims <= 0 defaults to two dimensions.
	fn, err = ByName("rosenbrock", 0)
	require.NoError(t, err)
	low, _ = fn.Bounds()
	assert.Len(t, low, 2)

	_, err = ByName("ackley", 3)
	require.Error(t, err, "ackley is 2-d only")
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))

	_, err = ByName("nope", 2)
	require.Error(t, err)
}

func TestObjectiveAdapter(t *testing.T) {
	obj := Objective(Booth{})
	assert.InDelta(t, 0.0, obj([]float64{1, 3}), 1e-12)
	assert.True(t, math.IsNaN(obj([]float64{100, 100})))
}
