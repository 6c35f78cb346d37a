package dataset

import (
	"fmt"
	"math/rand"
)

// DefaultTestFraction holds out 20% of the rows for evaluation.
const DefaultTestFraction = 0.2

// Split shuffles rows with a seeded permutation and moves
// floor(len(rows)*testFraction) of them into the test set. The same seed
// always yields the same split. rows is not modified.
func Split[T any](rows []T, testFraction float64, seed int64) (train, test []T, err error) {
	if !(testFraction >= 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("dataset: split: test fraction %v outside [0, 1)", testFraction)
	}

	n := len(rows)
	nTest := int(float64(n) * testFraction)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	train = make([]T, 0, n-nTest)
	test = make([]T, 0, nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, rows[idx])
		} else {
			train = append(train, rows[idx])
		}
	}
	return train, test, nil
}
