package classifier

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/crimson-sun/teximal/internal/engine/sparse"
)

// Multiclass is a maximum-entropy (softmax regression) model over Classes
// keys. Weights holds Classes rows of Dim weights, row-major.
type Multiclass struct {
	Classes int
	Dim     int
	Weights []float64
	Biases  []float64
}

// FitMulticlass fits a softmax regression on X with integer class keys y in
// [0, classes).
func FitMulticlass(ctx context.Context, X []sparse.Vector, y []int, classes, dim int, opts Options) (*Multiclass, Stats, error) {
	if len(X) != len(y) {
		return nil, Stats{}, fmt.Errorf("classifier: %d rows but %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, Stats{}, fmt.Errorf("classifier: %w", ErrEmptyTrainingSet)
	}
	if classes < 2 {
		return nil, Stats{}, fmt.Errorf("classifier: %w", ErrSingleClass)
	}
	for i, k := range y {
		if k < 0 || k >= classes {
			return nil, Stats{}, fmt.Errorf("classifier: row %d: class key %d outside [0, %d)", i, k, classes)
		}
	}

	n := float64(len(X))
	wlen := classes * dim
	scores := make([]float64, classes)
	loss := func(params []float64) float64 {
		var sum float64
		for i, v := range X {
			linear(params[:wlen], params[wlen:], v, dim, scores)
			sum += logSumExp(scores) - scores[y[i]]
		}
		w := params[:wlen]
		return sum/n + 0.5*opts.L2*floats.Dot(w, w)
	}
	gradScores := make([]float64, classes)
	grad := func(g, params []float64) {
		for i := range g {
			g[i] = 0
		}
		for i, v := range X {
			linear(params[:wlen], params[wlen:], v, dim, gradScores)
			lse := logSumExp(gradScores)
			for k := 0; k < classes; k++ {
				coef := math.Exp(gradScores[k] - lse)
				if k == y[i] {
					coef--
				}
				coef /= n
				v.AddScaledTo(g[k*dim:(k+1)*dim], coef)
				g[wlen+k] += coef
			}
		}
		floats.AddScaled(g[:wlen], opts.L2, params[:wlen])
	}

	params, stats, err := minimize(ctx, wlen+classes, loss, grad, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("classifier: multiclass: %w", err)
	}
	return &Multiclass{
		Classes: classes,
		Dim:     dim,
		Weights: params[:wlen],
		Biases:  params[wlen:],
	}, stats, nil
}

// Probabilities returns the softmax distribution over class keys.
func (m *Multiclass) Probabilities(x sparse.Vector) []float64 {
	p := make([]float64, m.Classes)
	linear(m.Weights, m.Biases, x, m.Dim, p)
	lse := logSumExp(p)
	for k := range p {
		p[k] = math.Exp(p[k] - lse)
	}
	return p
}

// Predict returns the most probable class key and its probability. Ties go
// to the lower key.
func (m *Multiclass) Predict(x sparse.Vector) (key int, probability float64) {
	p := m.Probabilities(x)
	key = floats.MaxIdx(p)
	return key, p[key]
}

// linear writes W_k·x + b_k for every class k into scores.
func linear(weights, biases []float64, x sparse.Vector, dim int, scores []float64) {
	for k := range biases {
		scores[k] = x.Dot(weights[k*dim:(k+1)*dim]) + biases[k]
	}
}

func logSumExp(s []float64) float64 {
	maxv := floats.Max(s)
	var sum float64
	for _, v := range s {
		sum += math.Exp(v - maxv)
	}
	return maxv + math.Log(sum)
}
