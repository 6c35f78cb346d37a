package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// BinaryMetrics holds the quality metrics of a binary classifier.
type BinaryMetrics struct {
	Accuracy          float64
	AUC               float64 // NaN when only one class is present
	F1Score           float64
	PositivePrecision float64
	PositiveRecall    float64
	NegativePrecision float64
	NegativeRecall    float64
	LogLoss           float64
	LogLossReduction  float64
	Entropy           float64
	Confusion         [2][2]int // [actual][predicted], index 1 = positive
}

// EvaluateBinary scores predictions against labels. scores are raw margins
// (positive means the positive class) and probabilities are P(positive).
func EvaluateBinary(labels []bool, scores, probabilities []float64) (BinaryMetrics, error) {
	n := len(labels)
	if n == 0 {
		return BinaryMetrics{}, ErrEmpty
	}
	if len(scores) != n || len(probabilities) != n {
		return BinaryMetrics{}, fmt.Errorf("metrics: %d labels, %d scores, %d probabilities", n, len(scores), len(probabilities))
	}

	var m BinaryMetrics
	var logLoss float64
	var positives int
	for i, label := range labels {
		actual, predicted := 0, 0
		if label {
			actual = 1
			positives++
		}
		if scores[i] > 0 {
			predicted = 1
		}
		m.Confusion[actual][predicted]++

		p := clamp(probabilities[i])
		if label {
			logLoss -= math.Log(p)
		} else {
			logLoss -= math.Log(1 - p)
		}
	}

	tp, fn := m.Confusion[1][1], m.Confusion[1][0]
	fp, tn := m.Confusion[0][1], m.Confusion[0][0]
	m.Accuracy = ratio(tp+tn, n)
	m.PositivePrecision = ratio(tp, tp+fp)
	m.PositiveRecall = ratio(tp, tp+fn)
	m.NegativePrecision = ratio(tn, tn+fn)
	m.NegativeRecall = ratio(tn, tn+fp)
	if m.PositivePrecision+m.PositiveRecall > 0 {
		m.F1Score = 2 * m.PositivePrecision * m.PositiveRecall / (m.PositivePrecision + m.PositiveRecall)
	}
	m.LogLoss = logLoss / float64(n)
	m.Entropy = entropy([]int{positives, n - positives}, n)
	m.LogLossReduction = reduction(m.LogLoss, m.Entropy)
	m.AUC = auc(labels, scores, positives)
	return m, nil
}

// ROCPoint is one point of a ROC curve.
type ROCPoint struct {
	FPR, TPR, Threshold float64
}

// ROCCurve returns the ROC curve ordered by increasing false positive rate.
// It returns nil when labels contain a single class.
func ROCCurve(labels []bool, scores []float64) []ROCPoint {
	var positives int
	for _, l := range labels {
		if l {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) || len(labels) != len(scores) {
		return nil
	}

	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), labels...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)

	points := make([]ROCPoint, len(tpr))
	for i := range tpr {
		points[i] = ROCPoint{FPR: fpr[i], TPR: tpr[i], Threshold: thresh[i]}
	}
	if len(points) > 1 && points[0].FPR > points[len(points)-1].FPR {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}
	return points
}

func auc(labels []bool, scores []float64, positives int) float64 {
	if positives == 0 || positives == len(labels) {
		return math.NaN()
	}
	curve := ROCCurve(labels, scores)
	if len(curve) < 2 {
		return math.NaN()
	}
	x := make([]float64, len(curve))
	f := make([]float64, len(curve))
	for i, p := range curve {
		x[i], f[i] = p.FPR, p.TPR
	}
	return integrate.Trapezoidal(x, f)
}
