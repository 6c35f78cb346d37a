package engine

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/crimson-sun/teximal/internal/engine/classifier"
	"github.com/crimson-sun/teximal/internal/engine/featurizer"
	"github.com/crimson-sun/teximal/internal/engine/metrics"
	"github.com/crimson-sun/teximal/internal/engine/sparse"
	"github.com/crimson-sun/teximal/internal/engine/taxonomy"
	"github.com/crimson-sun/teximal/internal/model"
)

// IssueModel predicts the area label of a GitHub issue from its title and
// description. Title and description are featurized separately and laid
// side by side, so the same word weighs differently in each.
type IssueModel struct {
	areas      *taxonomy.Taxonomy
	title      *featurizer.Featurizer
	desc       *featurizer.Featurizer
	classifier *classifier.Multiclass
	stats      classifier.Stats
}

// IssueEvaluation is the result of scoring an IssueModel on labelled rows.
type IssueEvaluation struct {
	metrics.MulticlassMetrics
	Evaluated int
	Skipped   int // rows whose area was not seen in training
}

// FitIssues maps areas to keys in first-occurrence order, featurizes every
// row once and fits a maximum-entropy classifier on the cached features.
func FitIssues(ctx context.Context, rows []model.Issue, opts Options) (*IssueModel, error) {
	title, desc, err := newIssueFeaturizers(opts.Featurizer)
	if err != nil {
		return nil, err
	}

	areas := make([]string, len(rows))
	for i, r := range rows {
		areas[i] = r.Area
	}
	tax := taxonomy.Fit(areas)
	y := make([]int, len(rows))
	for i, a := range areas {
		y[i], _ = tax.Key(a)
	}

	m := &IssueModel{areas: tax, title: title, desc: desc}
	X, err := m.featurizeAll(ctx, rows, opts.Workers)
	if err != nil {
		return nil, err
	}

	mc, stats, err := classifier.FitMulticlass(ctx, X, y, tax.Len(), m.dim(), opts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("engine: issues: %w", err)
	}
	m.classifier = mc
	m.stats = stats
	return m, nil
}

// NewIssueModel rebuilds a model from saved parts. areas lists the area
// labels in key order.
func NewIssueModel(areas []string, opts featurizer.Options, mc *classifier.Multiclass) (*IssueModel, error) {
	title, desc, err := newIssueFeaturizers(opts)
	if err != nil {
		return nil, err
	}
	m := &IssueModel{areas: taxonomy.FromValues(areas), title: title, desc: desc, classifier: mc}
	if mc == nil || mc.Classes != len(areas) || mc.Dim != m.dim() {
		return nil, fmt.Errorf("engine: issues: classifier does not match %d areas and %d features", len(areas), m.dim())
	}
	return m, nil
}

// newIssueFeaturizers builds the title and description featurizers, which
// share options but hash into separate feature blocks.
func newIssueFeaturizers(opts featurizer.Options) (title, desc *featurizer.Featurizer, err error) {
	if title, err = featurizer.New(opts); err != nil {
		return nil, nil, fmt.Errorf("engine: title: %w", err)
	}
	if desc, err = featurizer.New(opts); err != nil {
		return nil, nil, fmt.Errorf("engine: description: %w", err)
	}
	return title, desc, nil
}

// Areas returns the area labels in key order.
func (m *IssueModel) Areas() []string { return m.areas.Values() }

// FeaturizerOptions returns the options shared by both text featurizers.
func (m *IssueModel) FeaturizerOptions() featurizer.Options { return m.title.Options() }

// Classifier returns the fitted classifier.
func (m *IssueModel) Classifier() *classifier.Multiclass { return m.classifier }

// Stats returns the fit statistics. Zero for loaded models.
func (m *IssueModel) Stats() classifier.Stats { return m.stats }

// Predict returns the most probable area of issue. Area and ID on the
// input are ignored except for ID being echoed back.
func (m *IssueModel) Predict(issue model.Issue) model.IssuePrediction {
	p := m.classifier.Probabilities(m.featurize(issue))
	key := floats.MaxIdx(p)
	area, _ := m.areas.Value(key)
	return model.IssuePrediction{
		ID:          issue.ID,
		Title:       issue.Title,
		Area:        area,
		Probability: p[key],
		Scores:      p,
	}
}

// Evaluate scores the model on labelled rows. Rows with an area the model
// has never seen cannot be scored and are counted in Skipped.
func (m *IssueModel) Evaluate(ctx context.Context, rows []model.Issue, workers int) (IssueEvaluation, error) {
	known := make([]model.Issue, 0, len(rows))
	labels := make([]int, 0, len(rows))
	for _, r := range rows {
		if k, ok := m.areas.Key(r.Area); ok {
			known = append(known, r)
			labels = append(labels, k)
		}
	}

	X, err := m.featurizeAll(ctx, known, workers)
	if err != nil {
		return IssueEvaluation{}, err
	}
	probs := make([][]float64, len(X))
	for i, x := range X {
		probs[i] = m.classifier.Probabilities(x)
	}
	mm, err := metrics.EvaluateMulticlass(labels, probs, m.areas.Len())
	if err != nil {
		return IssueEvaluation{}, fmt.Errorf("engine: evaluate: %w", err)
	}
	return IssueEvaluation{
		MulticlassMetrics: mm,
		Evaluated:         len(known),
		Skipped:           len(rows) - len(known),
	}, nil
}

func (m *IssueModel) dim() int { return m.title.Dim() + m.desc.Dim() }

func (m *IssueModel) featurize(issue model.Issue) sparse.Vector {
	return sparse.Concat(
		sparse.Block{Vector: m.title.Featurize(issue.Title), Dim: m.title.Dim()},
		sparse.Block{Vector: m.desc.Featurize(issue.Description), Dim: m.desc.Dim()},
	)
}

func (m *IssueModel) featurizeAll(ctx context.Context, rows []model.Issue, workers int) ([]sparse.Vector, error) {
	titles := make([]string, len(rows))
	descs := make([]string, len(rows))
	for i, r := range rows {
		titles[i] = r.Title
		descs[i] = r.Description
	}
	tv, err := m.title.FeaturizeAll(ctx, titles, workers)
	if err != nil {
		return nil, fmt.Errorf("engine: issues: title: %w", err)
	}
	dv, err := m.desc.FeaturizeAll(ctx, descs, workers)
	if err != nil {
		return nil, fmt.Errorf("engine: issues: description: %w", err)
	}
	X := make([]sparse.Vector, len(rows))
	for i := range rows {
		X[i] = sparse.Concat(
			sparse.Block{Vector: tv[i], Dim: m.title.Dim()},
			sparse.Block{Vector: dv[i], Dim: m.desc.Dim()},
		)
	}
	return X, nil
}
