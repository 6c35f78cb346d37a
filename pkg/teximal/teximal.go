package teximal

import (
	"context"
	"fmt"

	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/modelstore"
)

// Sentiment classifies reviews as positive or negative.
type Sentiment struct {
	model *engine.SentimentModel
}

// TrainSentiment fits a sentiment model on reviews. Both labels must occur.
func TrainSentiment(ctx context.Context, reviews []Review, opts ...Option) (*Sentiment, error) {
	rows := make([]model.SentimentInput, len(reviews))
	for i, r := range reviews {
		rows[i] = model.SentimentInput{Text: r.Text, Label: r.Positive}
	}
	m, err := engine.FitSentiment(ctx, rows, buildOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("teximal: %w", err)
	}
	return &Sentiment{model: m}, nil
}

// LoadSentiment reads a model saved by Save or by the sentiment command.
func LoadSentiment(path string) (*Sentiment, error) {
	m, _, err := modelstore.LoadSentiment(path)
	if err != nil {
		return nil, fmt.Errorf("teximal: %w", err)
	}
	return &Sentiment{model: m}, nil
}

// Predict classifies one text.
func (s *Sentiment) Predict(text string) Prediction {
	return predictionFromModel(s.model.Predict(text))
}

// PredictBatch classifies texts in order.
func (s *Sentiment) PredictBatch(texts []string) []Prediction {
	preds := s.model.PredictBatch(texts)
	out := make([]Prediction, len(preds))
	for i, p := range preds {
		out[i] = predictionFromModel(p)
	}
	return out
}

// Save writes the model to path.
func (s *Sentiment) Save(path string) error {
	if err := modelstore.SaveSentiment(path, "", s.model); err != nil {
		return fmt.Errorf("teximal: %w", err)
	}
	return nil
}

// IssueClassifier assigns GitHub issues to areas.
type IssueClassifier struct {
	model *engine.IssueModel
}

// TrainIssues fits an issue classifier. At least two areas must occur.
func TrainIssues(ctx context.Context, issues []Issue, opts ...Option) (*IssueClassifier, error) {
	rows := make([]model.Issue, len(issues))
	for i, is := range issues {
		rows[i] = model.Issue(is)
	}
	m, err := engine.FitIssues(ctx, rows, buildOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("teximal: %w", err)
	}
	return &IssueClassifier{model: m}, nil
}

// LoadIssues reads a model saved by Save or by the issues command.
func LoadIssues(path string) (*IssueClassifier, error) {
	m, _, err := modelstore.LoadIssues(path)
	if err != nil {
		return nil, fmt.Errorf("teximal: %w", err)
	}
	return &IssueClassifier{model: m}, nil
}

// Areas returns the areas the classifier can predict.
func (c *IssueClassifier) Areas() []string {
	return c.model.Areas()
}

// Predict returns the most probable area for an issue.
func (c *IssueClassifier) Predict(title, description string) AreaPrediction {
	p := c.model.Predict(model.Issue{Title: title, Description: description})
	areas := c.model.Areas()
	scores := make(map[string]float64, len(areas))
	for k, a := range areas {
		scores[a] = p.Scores[k]
	}
	return AreaPrediction{Area: p.Area, Probability: p.Probability, Scores: scores}
}

// Save writes the model to path.
func (c *IssueClassifier) Save(path string) error {
	if err := modelstore.SaveIssues(path, "", c.model); err != nil {
		return fmt.Errorf("teximal: %w", err)
	}
	return nil
}

func predictionFromModel(p model.SentimentPrediction) Prediction {
	return Prediction{
		Text:        p.Text,
		Positive:    p.Prediction,
		Probability: p.Probability,
		Score:       p.Score,
	}
}
