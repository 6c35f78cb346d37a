// Package metrics evaluates binary and multi-class predictions.
package metrics

import (
	"errors"
	"math"
)

// ErrEmpty is returned when there is nothing to evaluate.
var ErrEmpty = errors.New("no rows to evaluate")

// probability clamp used by the log-loss terms
const epsilon = 1e-15

func clamp(p float64) float64 {
	return math.Min(math.Max(p, epsilon), 1-epsilon)
}

// entropy returns the natural-log entropy of a discrete distribution given
// as counts.
func entropy(counts []int, total int) float64 {
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}

// reduction returns 1 - loss/prior, or NaN when the prior carries no
// information.
func reduction(loss, prior float64) float64 {
	if prior == 0 {
		return math.NaN()
	}
	return (prior - loss) / prior
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
