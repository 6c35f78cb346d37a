// Package featurizer turns free text into hashed bag-of-n-gram vectors.
package featurizer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/teximal/internal/engine/sparse"
)

const maxBits = 24

// Options controls the n-gram extraction and the hashed space.
type Options struct {
	Bits       int // feature space has 2^Bits buckets
	WordNgrams int // word n-grams of length 1..WordNgrams
	CharNgrams int // char n-grams of exactly this length, 0 disables
}

// DefaultOptions returns 2^14 buckets, word uni+bigrams, char trigrams.
func DefaultOptions() Options {
	return Options{Bits: 14, WordNgrams: 2, CharNgrams: 3}
}

// Featurizer maps text to L2-normalized term-count vectors in a hashed
// feature space. It holds no state besides its options and is safe for
// concurrent use.
type Featurizer struct {
	opts Options
	mask uint64
}

// New validates opts and creates a Featurizer.
func New(opts Options) (*Featurizer, error) {
	if opts.Bits < 1 || opts.Bits > maxBits {
		return nil, fmt.Errorf("featurizer: bits %d outside [1, %d]", opts.Bits, maxBits)
	}
	if opts.WordNgrams < 0 || opts.CharNgrams < 0 {
		return nil, fmt.Errorf("featurizer: negative n-gram length")
	}
	if opts.WordNgrams == 0 && opts.CharNgrams == 0 {
		return nil, fmt.Errorf("featurizer: word and char n-grams both disabled")
	}
	return &Featurizer{opts: opts, mask: 1<<uint(opts.Bits) - 1}, nil
}

// Options returns the options the featurizer was built with.
func (f *Featurizer) Options() Options { return f.opts }

// Dim returns the dimensionality of produced vectors.
func (f *Featurizer) Dim() int { return int(f.mask) + 1 }

// Featurize returns the hashed n-gram vector for text. Empty or
// all-whitespace text yields an empty vector.
func (f *Featurizer) Featurize(text string) sparse.Vector {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return sparse.Vector{}
	}

	counts := make(map[int]float64)
	for n := 1; n <= f.opts.WordNgrams; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			counts[f.bucket("w", strings.Join(tokens[i:i+n], " "))]++
		}
	}
	if f.opts.CharNgrams > 0 {
		for _, tok := range tokens {
			for _, gram := range charNgrams(tok, f.opts.CharNgrams) {
				counts[f.bucket("c", gram)]++
			}
		}
	}

	v := sparse.Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, counts[idx])
	}
	v.Normalize()
	return v
}

// FeaturizeAll featurizes texts across up to workers goroutines (GOMAXPROCS
// when workers <= 0). Output order matches input order.
func (f *Featurizer) FeaturizeAll(ctx context.Context, texts []string, workers int) ([]sparse.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]sparse.Vector, len(texts))
	rowsPerWorker := (len(texts) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(texts); start += rowsPerWorker {
		end := min(start+rowsPerWorker, len(texts))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = f.Featurize(texts[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("featurizer: %w", err)
	}
	return out, nil
}

func (f *Featurizer) bucket(namespace, gram string) int {
	return int(xxhash.Sum64String(namespace+"\x00"+gram) & f.mask)
}

// charNgrams returns the n-rune windows of "<tok>". Tokens shorter than n
// after padding yield the padded token itself.
func charNgrams(tok string, n int) []string {
	runes := []rune("<" + tok + ">")
	if len(runes) <= n {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}
