package classifier

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/crimson-sun/teximal/internal/engine/sparse"
)

// Binary is a logistic regression model. Exported fields allow gob
// encoding.
type Binary struct {
	Weights []float64
	Bias    float64
}

// FitBinary fits a logistic regression on X with labels y in a dim-wide
// feature space.
func FitBinary(ctx context.Context, X []sparse.Vector, y []bool, dim int, opts Options) (*Binary, Stats, error) {
	if len(X) != len(y) {
		return nil, Stats{}, fmt.Errorf("classifier: %d rows but %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, Stats{}, fmt.Errorf("classifier: %w", ErrEmptyTrainingSet)
	}
	targets := make([]float64, len(y))
	var positives int
	for i, label := range y {
		if label {
			targets[i] = 1
			positives++
		} else {
			targets[i] = -1
		}
	}
	if positives == 0 || positives == len(y) {
		return nil, Stats{}, fmt.Errorf("classifier: %w", ErrSingleClass)
	}

	n := float64(len(X))
	loss := func(params []float64) float64 {
		w, b := params[:dim], params[dim]
		var sum float64
		for i, v := range X {
			sum += log1pExp(-targets[i] * (v.Dot(w) + b))
		}
		return sum/n + 0.5*opts.L2*floats.Dot(w, w)
	}
	grad := func(g, params []float64) {
		for i := range g {
			g[i] = 0
		}
		w, b := params[:dim], params[dim]
		gw := g[:dim]
		for i, v := range X {
			margin := targets[i] * (v.Dot(w) + b)
			coef := -targets[i] * sigmoid(-margin) / n
			v.AddScaledTo(gw, coef)
			g[dim] += coef
		}
		floats.AddScaled(gw, opts.L2, w)
	}

	params, stats, err := minimize(ctx, dim+1, loss, grad, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("classifier: binary: %w", err)
	}
	return &Binary{Weights: params[:dim], Bias: params[dim]}, stats, nil
}

// Score returns the raw margin w·x+b. Positive means the positive class.
func (m *Binary) Score(x sparse.Vector) float64 {
	return x.Dot(m.Weights) + m.Bias
}

// Probability returns the calibrated probability of the positive class.
func (m *Binary) Probability(x sparse.Vector) float64 {
	return sigmoid(m.Score(x))
}

// Predict returns true for the positive class.
func (m *Binary) Predict(x sparse.Vector) bool {
	return m.Score(x) > 0
}

// Dim returns the feature dimension the model was fit on.
func (m *Binary) Dim() int { return len(m.Weights) }
