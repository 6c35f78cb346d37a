package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MulticlassMetrics holds the quality metrics of a multi-class classifier.
type MulticlassMetrics struct {
	MicroAccuracy    float64 // fraction of rows predicted correctly
	MacroAccuracy    float64 // mean per-class recall over classes present in the labels
	LogLoss          float64
	LogLossReduction float64
	PerClassLogLoss  []float64 // NaN for classes absent from the labels
	Confusion        [][]int   // [actual][predicted]
}

// EvaluateMulticlass scores per-row class distributions against the true
// class keys. The predicted class of a row is the argmax of its
// probabilities.
func EvaluateMulticlass(labels []int, probabilities [][]float64, classes int) (MulticlassMetrics, error) {
	n := len(labels)
	if n == 0 {
		return MulticlassMetrics{}, ErrEmpty
	}
	if len(probabilities) != n {
		return MulticlassMetrics{}, fmt.Errorf("metrics: %d labels but %d predictions", n, len(probabilities))
	}

	m := MulticlassMetrics{
		PerClassLogLoss: make([]float64, classes),
		Confusion:       make([][]int, classes),
	}
	for k := range m.Confusion {
		m.Confusion[k] = make([]int, classes)
	}

	counts := make([]int, classes)
	correct := make([]int, classes)
	classLoss := make([]float64, classes)
	var logLoss float64
	for i, label := range labels {
		p := probabilities[i]
		if label < 0 || label >= classes || len(p) != classes {
			return MulticlassMetrics{}, fmt.Errorf("metrics: row %d: label %d or %d probabilities do not fit %d classes", i, label, len(p), classes)
		}
		predicted := floats.MaxIdx(p)
		m.Confusion[label][predicted]++
		counts[label]++
		if predicted == label {
			correct[label]++
		}
		loss := -math.Log(clamp(p[label]))
		logLoss += loss
		classLoss[label] += loss
	}

	var totalCorrect, present int
	var recallSum float64
	for k := 0; k < classes; k++ {
		totalCorrect += correct[k]
		if counts[k] == 0 {
			m.PerClassLogLoss[k] = math.NaN()
			continue
		}
		present++
		recallSum += ratio(correct[k], counts[k])
		m.PerClassLogLoss[k] = classLoss[k] / float64(counts[k])
	}

	m.MicroAccuracy = ratio(totalCorrect, n)
	m.MacroAccuracy = recallSum / float64(present)
	m.LogLoss = logLoss / float64(n)
	m.LogLossReduction = reduction(m.LogLoss, entropy(counts, n))
	return m, nil
}
