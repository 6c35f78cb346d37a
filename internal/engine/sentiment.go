package engine

import (
	"context"
	"fmt"

	"github.com/crimson-sun/teximal/internal/engine/classifier"
	"github.com/crimson-sun/teximal/internal/engine/featurizer"
	"github.com/crimson-sun/teximal/internal/engine/metrics"
	"github.com/crimson-sun/teximal/internal/model"
)

// SentimentModel classifies review text as positive or negative.
type SentimentModel struct {
	featurizer *featurizer.Featurizer
	classifier *classifier.Binary
	stats      classifier.Stats
}

// SentimentEvaluation is the result of scoring a SentimentModel on
// labelled rows.
type SentimentEvaluation struct {
	metrics.BinaryMetrics
	ROC []metrics.ROCPoint
}

// FitSentiment featurizes rows and fits a logistic regression on them.
func FitSentiment(ctx context.Context, rows []model.SentimentInput, opts Options) (*SentimentModel, error) {
	f, err := featurizer.New(opts.Featurizer)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	texts := make([]string, len(rows))
	labels := make([]bool, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
		labels[i] = r.Label
	}
	X, err := f.FeaturizeAll(ctx, texts, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("engine: sentiment: %w", err)
	}

	bin, stats, err := classifier.FitBinary(ctx, X, labels, f.Dim(), opts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("engine: sentiment: %w", err)
	}
	return &SentimentModel{featurizer: f, classifier: bin, stats: stats}, nil
}

// NewSentimentModel rebuilds a model from saved parts.
func NewSentimentModel(opts featurizer.Options, bin *classifier.Binary) (*SentimentModel, error) {
	f, err := featurizer.New(opts)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if bin == nil || bin.Dim() != f.Dim() {
		return nil, fmt.Errorf("engine: sentiment: classifier does not match %d features", f.Dim())
	}
	return &SentimentModel{featurizer: f, classifier: bin}, nil
}

// FeaturizerOptions returns the options of the model's featurizer.
func (m *SentimentModel) FeaturizerOptions() featurizer.Options { return m.featurizer.Options() }

// Classifier returns the fitted classifier.
func (m *SentimentModel) Classifier() *classifier.Binary { return m.classifier }

// Stats returns the fit statistics. Zero for loaded models.
func (m *SentimentModel) Stats() classifier.Stats { return m.stats }

// Predict classifies one text.
func (m *SentimentModel) Predict(text string) model.SentimentPrediction {
	x := m.featurizer.Featurize(text)
	score := m.classifier.Score(x)
	return model.SentimentPrediction{
		Text:        text,
		Prediction:  score > 0,
		Probability: m.classifier.Probability(x),
		Score:       score,
	}
}

// PredictBatch classifies texts in order.
func (m *SentimentModel) PredictBatch(texts []string) []model.SentimentPrediction {
	out := make([]model.SentimentPrediction, len(texts))
	for i, t := range texts {
		out[i] = m.Predict(t)
	}
	return out
}

// Evaluate scores the model on labelled rows.
func (m *SentimentModel) Evaluate(ctx context.Context, rows []model.SentimentInput, workers int) (SentimentEvaluation, error) {
	texts := make([]string, len(rows))
	labels := make([]bool, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
		labels[i] = r.Label
	}
	X, err := m.featurizer.FeaturizeAll(ctx, texts, workers)
	if err != nil {
		return SentimentEvaluation{}, fmt.Errorf("engine: evaluate: %w", err)
	}

	scores := make([]float64, len(X))
	probs := make([]float64, len(X))
	for i, x := range X {
		scores[i] = m.classifier.Score(x)
		probs[i] = m.classifier.Probability(x)
	}
	bm, err := metrics.EvaluateBinary(labels, scores, probs)
	if err != nil {
		return SentimentEvaluation{}, fmt.Errorf("engine: evaluate: %w", err)
	}
	return SentimentEvaluation{BinaryMetrics: bm, ROC: metrics.ROCCurve(labels, scores)}, nil
}
