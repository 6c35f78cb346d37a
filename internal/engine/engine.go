// Package engine assembles featurizers and classifiers into the two text
// models: binary sentiment and multi-class issue area.
package engine

import (
	"github.com/crimson-sun/teximal/internal/engine/classifier"
	"github.com/crimson-sun/teximal/internal/engine/featurizer"
)

// Options configures model fitting.
type Options struct {
	Featurizer featurizer.Options
	Classifier classifier.Options
	Workers    int // featurization goroutines, GOMAXPROCS when <= 0
}

// DefaultOptions returns the default featurizer and classifier options.
func DefaultOptions() Options {
	return Options{
		Featurizer: featurizer.DefaultOptions(),
		Classifier: classifier.DefaultOptions(),
	}
}
