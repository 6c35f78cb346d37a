// Package sparse holds the sparse feature vectors passed between the
// featurizer and the classifiers.
package sparse

import "gonum.org/v1/gonum/floats"

// Vector is a sparse vector. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (v Vector) Len() int { return len(v.Indices) }

// Dot returns the inner product with a dense vector.
func (v Vector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += dense[idx] * v.Values[i]
	}
	return sum
}

// AddScaledTo adds alpha*v into dst.
func (v Vector) AddScaledTo(dst []float64, alpha float64) {
	for i, idx := range v.Indices {
		dst[idx] += alpha * v.Values[i]
	}
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	if len(v.Values) == 0 {
		return 0
	}
	return floats.Norm(v.Values, 2)
}

// Normalize scales v in place to unit Euclidean norm. Zero vectors are left
// unchanged.
func (v Vector) Normalize() {
	n := v.Norm()
	if n == 0 {
		return
	}
	floats.Scale(1/n, v.Values)
}

// Block is a vector together with the dimension of the space it lives in.
type Block struct {
	Vector Vector
	Dim    int
}

// Concat lays blocks end to end: block i is shifted by the sum of the
// dimensions of blocks 0..i-1.
func Concat(blocks ...Block) Vector {
	n := 0
	for _, b := range blocks {
		n += b.Vector.Len()
	}
	out := Vector{Indices: make([]int, 0, n), Values: make([]float64, 0, n)}
	offset := 0
	for _, b := range blocks {
		for i, idx := range b.Vector.Indices {
			out.Indices = append(out.Indices, offset+idx)
			out.Values = append(out.Values, b.Vector.Values[i])
		}
		offset += b.Dim
	}
	return out
}
