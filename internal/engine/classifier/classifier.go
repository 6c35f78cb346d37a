// Package classifier fits L2-regularised linear classifiers on sparse
// features: binary logistic regression and multi-class maximum entropy.
// Fitting is delegated to gonum's L-BFGS minimiser starting from zero, so
// the same data and options always produce the same model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrEmptyTrainingSet is returned when there is nothing to fit.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrSingleClass is returned when the labels contain fewer than two
	// distinct classes.
	ErrSingleClass = errors.New("training labels contain a single class")
	// ErrNonFinite is returned when the optimiser ends on NaN or infinite
	// weights without reporting an error.
	ErrNonFinite = errors.New("optimize: non-finite solution")
)

// Options controls fitting.
type Options struct {
	L2            float64 // weight of the 0.5*||W||^2 penalty
	MaxIterations int     // L-BFGS major iterations
	// Progress, when set, is called after every major iteration with the
	// iteration number and the current objective value.
	Progress func(iteration int, loss float64)
}

// DefaultOptions returns L2=1e-3 and 100 iterations.
func DefaultOptions() Options {
	return Options{L2: 1e-3, MaxIterations: 100}
}

// Stats summarises a fit.
type Stats struct {
	Iterations  int
	Evaluations int
	Loss        float64
	Status      string
}

// minimize runs L-BFGS on an n-dimensional objective from the origin.
func minimize(ctx context.Context, n int, fn func(x []float64) float64, grad func(g, x []float64), opts Options) ([]float64, Stats, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	problem := optimize.Problem{Func: fn, Grad: grad}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: 1e-6,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-9,
			Iterations: 10,
		},
		Recorder: &recorder{ctx: ctx, progress: opts.Progress},
	}

	result, err := optimize.Minimize(problem, make([]float64, n), settings, &optimize.LBFGS{Store: 7})
	if cerr := ctx.Err(); cerr != nil {
		return nil, Stats{}, cerr
	}
	if result == nil {
		return nil, Stats{}, fmt.Errorf("optimize: %w", err)
	}
	if err := checkSolution(result.X, n, err); err != nil {
		return nil, Stats{}, err
	}
	stats := Stats{
		Iterations:  result.Stats.MajorIterations,
		Evaluations: result.Stats.FuncEvaluations,
		Loss:        result.F,
		Status:      result.Status.String(),
	}
	if err != nil {
		// A line search that cannot make progress still leaves a usable
		// optimum; surface it in the status.
		stats.Status = fmt.Sprintf("%s (%v)", stats.Status, err)
	}
	return result.X, stats, nil
}

// checkSolution rejects a solution of the wrong size or with non-finite
// weights. optErr is the error returned by the optimiser, if any.
func checkSolution(x []float64, n int, optErr error) error {
	if len(x) == n && finite(x) {
		return nil
	}
	if optErr != nil {
		return fmt.Errorf("optimize: %w", optErr)
	}
	return ErrNonFinite
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// recorder aborts the optimisation on context cancellation and reports
// progress.
type recorder struct {
	ctx      context.Context
	progress func(int, float64)
}

func (r *recorder) Init() error { return r.ctx.Err() }

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if op == optimize.MajorIteration && r.progress != nil {
		r.progress(stats.MajorIterations, loc.F)
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// log1pExp returns log(1+e^z) without overflow.
func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
