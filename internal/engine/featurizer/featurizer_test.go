package featurizer

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeaturizer(t *testing.T) *Featurizer {
	t.Helper()
	f, err := New(DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero bits", Options{Bits: 0, WordNgrams: 1}},
		{"too many bits", Options{Bits: 30, WordNgrams: 1}},
		{"negative ngrams", Options{Bits: 10, WordNgrams: -1}},
		{"nothing enabled", Options{Bits: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestFeaturizeIsNormalizedAndSorted(t *testing.T) {
	f := newTestFeaturizer(t)
	v := f.Featurize("This was a very bad steak")

	require.NotZero(t, v.Len())
	assert.InDelta(t, 1, v.Norm(), 1e-9)
	assert.True(t, sort.IntsAreSorted(v.Indices))
	for _, idx := range v.Indices {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, f.Dim())
	}
}

func TestFeaturizeDeterministic(t *testing.T) {
	f := newTestFeaturizer(t)
	a := f.Featurize("I love this spaghetti.")
	b := f.Featurize("I love this spaghetti.")
	assert.Equal(t, a, b)
}

func TestFeaturizeNormalizesCaseAndAccents(t *testing.T) {
	f := newTestFeaturizer(t)
	assert.Equal(t, f.Featurize("cafe creme"), f.Featurize("CAFÉ Crème"))
}

func TestFeaturizeEmpty(t *testing.T) {
	f := newTestFeaturizer(t)
	v := f.Featurize("  \t ")
	assert.Zero(t, v.Len())
}

func TestFeaturizeWordOnly(t *testing.T) {
	f, err := New(Options{Bits: 16, WordNgrams: 1})
	require.NoError(t, err)
	v := f.Featurize("bad bad good")
	// Two distinct unigrams, barring a hash collision in 65536 buckets.
	require.Equal(t, 2, v.Len())
	assert.InDelta(t, 1, v.Norm(), 1e-9)
}

func TestFeaturizeAllPreservesOrder(t *testing.T) {
	f := newTestFeaturizer(t)
	texts := make([]string, 37)
	for i := range texts {
		texts[i] = fmt.Sprintf("review number %d was fine", i)
	}

	got, err := f.FeaturizeAll(context.Background(), texts, 4)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	for i, text := range texts {
		assert.Equal(t, f.Featurize(text), got[i], "row %d", i)
	}
}

func TestFeaturizeAllCancelled(t *testing.T) {
	f := newTestFeaturizer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FeaturizeAll(ctx, []string{"a", "b"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
