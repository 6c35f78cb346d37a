package sparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDotAndAddScaled(t *testing.T) {
	v := Vector{Indices: []int{0, 3}, Values: []float64{2, -1}}
	dense := []float64{1, 5, 5, 4}

	assert.Equal(t, 2.0*1-1*4, v.Dot(dense))

	v.AddScaledTo(dense, 0.5)
	assert.Equal(t, []float64{2, 5, 5, 3.5}, dense)
}

func TestNormalize(t *testing.T) {
	v := Vector{Indices: []int{1, 2}, Values: []float64{3, 4}}
	v.Normalize()
	assert.InDelta(t, 0.6, v.Values[0], 1e-12)
	assert.InDelta(t, 0.8, v.Values[1], 1e-12)
	assert.InDelta(t, 1, v.Norm(), 1e-12)

	var zero Vector
	zero.Normalize()
	assert.Equal(t, 0.0, zero.Norm())
	assert.False(t, math.IsNaN(zero.Norm()))
}

func TestConcat(t *testing.T) {
	a := Vector{Indices: []int{1, 3}, Values: []float64{1, 2}}
	b := Vector{Indices: []int{0}, Values: []float64{5}}

	got := Concat(Block{Vector: a, Dim: 4}, Block{Vector: Vector{}, Dim: 2}, Block{Vector: b, Dim: 4})
	assert.Equal(t, []int{1, 3, 6}, got.Indices)
	assert.Equal(t, []float64{1, 2, 5}, got.Values)
}
