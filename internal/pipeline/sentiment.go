package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/teximal/internal/dataset"
	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/modelstore"
	"github.com/crimson-sun/teximal/internal/rocplot"
)

// Sample texts scored after training.
var (
	SentimentSample  = "This was a very bad steak"
	SentimentSamples = []string{
		"This was a horrible meal",
		"This was an okay experience",
		"I love this spaghetti.",
	}
)

// Sentiment loads the review dataset, holds out a seeded test split, fits
// the sentiment model, reports its quality and sample predictions, and
// optionally saves the model, the ROC plot and the run.
func (p *Pipeline) Sentiment(ctx context.Context) (model.Run, error) {
	r := p.start(model.PipelineSentiment)
	cfg := p.cfg

	path := cfg.Data.SentimentPath()
	rows, err := dataset.LoadSentimentFile(ctx, path, r.loadOptions()...)
	if err != nil {
		return r.info, fmt.Errorf("pipeline sentiment: %w", err)
	}
	train, test, err := dataset.Split(rows, cfg.Train.TestFraction, cfg.Train.Seed)
	if err != nil {
		return r.info, fmt.Errorf("pipeline sentiment: %w", err)
	}
	r.info.TrainRows, r.info.TestRows = len(train), len(test)
	r.logger.Info("dataset loaded", "path", path, "rows", len(rows), "train_rows", len(train), "test_rows", len(test))

	if err := r.banner(ctx, "BUILDING AND TRAINING MODEL"); err != nil {
		return r.info, err
	}
	opts, stop := r.engineOptions()
	m, err := engine.FitSentiment(ctx, train, opts)
	stop()
	if err != nil {
		return r.info, fmt.Errorf("pipeline sentiment: %w", err)
	}
	stats := m.Stats()
	r.logger.Info("model trained", "iterations", stats.Iterations, "loss", stats.Loss, "status", stats.Status)
	if err := r.banner(ctx, "DONE TRAINING"); err != nil {
		return r.info, err
	}

	if err := r.evaluateSentiment(ctx, m, test); err != nil {
		return r.info, err
	}

	if err := r.emit(ctx, model.Entry{
		Kind:      model.EntryPrediction,
		Title:     "Prediction Test of model with a single sample and test dataset",
		Sentiment: []model.SentimentPrediction{m.Predict(SentimentSample)},
	}); err != nil {
		return r.info, err
	}
	if err := r.emit(ctx, model.Entry{
		Kind:      model.EntryPrediction,
		Title:     "Prediction Test of model with a batch samples and test dataset",
		Sentiment: m.PredictBatch(SentimentSamples),
	}); err != nil {
		return r.info, err
	}

	if path := cfg.Store.ModelPath(model.PipelineSentiment); path != "" {
		if err := modelstore.SaveSentiment(path, r.info.ID, m); err != nil {
			return r.info, fmt.Errorf("pipeline sentiment: %w", err)
		}
		r.info.ModelPath = path
		r.logger.Info("model saved", "path", path)
	}
	return r.finish(ctx)
}

func (r *run) evaluateSentiment(ctx context.Context, m *engine.SentimentModel, test []model.SentimentInput) error {
	if err := r.banner(ctx, "Evaluating Model accuracy with Test data"); err != nil {
		return err
	}
	if len(test) == 0 {
		r.logger.Warn("no test rows, skipping evaluation", "test_fraction", r.p.cfg.Train.TestFraction)
		return r.message(ctx, "No test rows; evaluation skipped.")
	}

	ev, err := m.Evaluate(ctx, test, r.p.cfg.Train.Workers)
	if err != nil {
		return fmt.Errorf("pipeline sentiment: %w", err)
	}
	r.info.Metrics["accuracy"] = ev.Accuracy
	r.info.Metrics["auc"] = ev.AUC
	r.info.Metrics["f1_score"] = ev.F1Score
	r.info.Metrics["log_loss"] = ev.LogLoss
	r.info.Metrics["log_loss_reduction"] = ev.LogLossReduction

	if err := r.emit(ctx, model.Entry{
		Kind: model.EntryMetrics,
		Metrics: []model.Metric{
			{Name: "Accuracy", Value: ev.Accuracy, Percent: true},
			{Name: "Auc", Value: ev.AUC, Percent: true},
			{Name: "F1Score", Value: ev.F1Score, Percent: true},
		},
	}); err != nil {
		return err
	}
	if err := r.banner(ctx, "End of model evaluation"); err != nil {
		return err
	}

	if path := r.p.cfg.Output.ROCPlot; path != "" {
		err := rocplot.Save(path, ev.ROC, ev.AUC)
		switch {
		case errors.Is(err, rocplot.ErrNoCurve):
			r.logger.Warn("ROC curve undefined for a single-class test set, plot skipped")
		case err != nil:
			return fmt.Errorf("pipeline sentiment: %w", err)
		default:
			r.logger.Info("ROC plot saved", "path", path)
		}
	}
	return nil
}
