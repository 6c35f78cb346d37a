package teximal

import "github.com/crimson-sun/teximal/internal/engine"

// Option configures training.
type Option func(*engine.Options)

// WithFeatureBits sets the size of the hashed feature space to 2^bits.
// Default: 14.
func WithFeatureBits(bits int) Option {
	return func(o *engine.Options) { o.Featurizer.Bits = bits }
}

// WithNgrams sets the longest word n-gram and the char n-gram length.
// A zero disables that kind of n-gram. Default: 2 and 3.
func WithNgrams(word, char int) Option {
	return func(o *engine.Options) {
		o.Featurizer.WordNgrams = word
		o.Featurizer.CharNgrams = char
	}
}

// WithL2 sets the L2 regularisation weight. Default: 1e-3.
func WithL2(l2 float64) Option {
	return func(o *engine.Options) { o.Classifier.L2 = l2 }
}

// WithMaxIterations caps the optimiser iterations. Default: 100.
func WithMaxIterations(n int) Option {
	return func(o *engine.Options) { o.Classifier.MaxIterations = n }
}

// WithWorkers bounds the featurization goroutines. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *engine.Options) { o.Workers = n }
}

func buildOptions(opts []Option) engine.Options {
	o := engine.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
