package pipeline

import (
	"context"
	"fmt"

	"github.com/crimson-sun/teximal/internal/dataset"
	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/modelstore"
)

// Sample issues scored during and after training.
var (
	IssueTrainingSample = model.Issue{
		Title:       "WebSockets communication is slow in my machine",
		Description: "The WebSockets communication used under the covers by SignalR looks like is going slow in my development machine..",
	}
	IssueSample = model.Issue{
		Title:       "Entity Framework crashes",
		Description: "When connecting to the database, EF is crashing",
	}
)

// Issues fits the issue area model on the training file, checks it on one
// sample, evaluates it on the test file, optionally saves it and predicts a
// final sample with the saved model.
func (p *Pipeline) Issues(ctx context.Context) (model.Run, error) {
	r := p.start(model.PipelineIssues)
	cfg := p.cfg
	trainPath, testPath := cfg.Data.IssuesTrainPath(), cfg.Data.IssuesTestPath()

	if err := r.message(ctx, trainPath); err != nil {
		return r.info, err
	}
	if err := r.message(ctx, testPath); err != nil {
		return r.info, err
	}

	train, err := dataset.LoadIssuesFile(ctx, trainPath, r.loadOptions()...)
	if err != nil {
		return r.info, fmt.Errorf("pipeline issues: %w", err)
	}
	r.info.TrainRows = len(train)
	r.logger.Info("dataset loaded", "path", trainPath, "rows", len(train))

	opts, stop := r.engineOptions()
	m, err := engine.FitIssues(ctx, train, opts)
	stop()
	if err != nil {
		return r.info, fmt.Errorf("pipeline issues: %w", err)
	}
	stats := m.Stats()
	r.logger.Info("model trained", "iterations", stats.Iterations, "loss", stats.Loss, "status", stats.Status, "areas", len(m.Areas()))

	if err := r.predictIssue(ctx, m, "Single Prediction just-trained-model", IssueTrainingSample); err != nil {
		return r.info, err
	}

	test, err := dataset.LoadIssuesFile(ctx, testPath, r.loadOptions()...)
	if err != nil {
		return r.info, fmt.Errorf("pipeline issues: %w", err)
	}
	if err := r.evaluateIssues(ctx, m, test); err != nil {
		return r.info, err
	}

	final := m
	if path := cfg.Store.ModelPath(model.PipelineIssues); path != "" {
		if err := modelstore.SaveIssues(path, r.info.ID, m); err != nil {
			return r.info, fmt.Errorf("pipeline issues: %w", err)
		}
		r.info.ModelPath = path
		if final, _, err = modelstore.LoadIssues(path); err != nil {
			return r.info, fmt.Errorf("pipeline issues: %w", err)
		}
		r.logger.Info("model saved and reloaded", "path", path)
	}

	if err := r.predictIssue(ctx, final, "Single Prediction", IssueSample); err != nil {
		return r.info, err
	}
	return r.finish(ctx)
}

func (r *run) predictIssue(ctx context.Context, m *engine.IssueModel, title string, issue model.Issue) error {
	pred := m.Predict(issue)
	return r.emit(ctx, model.Entry{Kind: model.EntryPrediction, Title: title, Issue: &pred})
}

func (r *run) evaluateIssues(ctx context.Context, m *engine.IssueModel, test []model.Issue) error {
	ev, err := m.Evaluate(ctx, test, r.p.cfg.Train.Workers)
	if err != nil {
		return fmt.Errorf("pipeline issues: %w", err)
	}
	r.info.TestRows = ev.Evaluated
	if ev.Skipped > 0 {
		r.logger.Warn("test rows with unknown area skipped", "skipped", ev.Skipped)
	}
	r.info.Metrics["micro_accuracy"] = ev.MicroAccuracy
	r.info.Metrics["macro_accuracy"] = ev.MacroAccuracy
	r.info.Metrics["log_loss"] = ev.LogLoss
	r.info.Metrics["log_loss_reduction"] = ev.LogLossReduction

	return r.emit(ctx, model.Entry{
		Kind:  model.EntryMetrics,
		Style: model.StyleBoxed,
		Title: "Metrics for Multi-class Classification model - Test Data",
		Metrics: []model.Metric{
			{Name: "MicroAccuracy", Value: ev.MicroAccuracy},
			{Name: "MacroAccuracy", Value: ev.MacroAccuracy},
			{Name: "LogLoss", Value: ev.LogLoss},
			{Name: "LogLossReduction", Value: ev.LogLossReduction},
		},
	})
}
