// Package pipeline runs the sentiment and issue workflows end to end and
// streams their report to an output.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"

	"github.com/crimson-sun/teximal/internal/config"
	"github.com/crimson-sun/teximal/internal/dataset"
	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/history"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/output"
)

// Pipeline connects configuration, models and an output.
type Pipeline struct {
	cfg      config.Config
	output   output.Output
	logger   *slog.Logger
	history  *history.Store
	progress io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithHistory records every finished run in s.
func WithHistory(s *history.Store) Option {
	return func(p *Pipeline) { p.history = s }
}

// WithProgress draws loading and training progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// New creates a Pipeline from the given components.
func New(cfg config.Config, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, output: out, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

// run carries the state shared by the steps of one execution.
type run struct {
	p      *Pipeline
	info   model.Run
	logger *slog.Logger
}

func (p *Pipeline) start(pipeline string) *run {
	id := uuid.NewString()
	return &run{
		p: p,
		info: model.Run{
			ID:        id,
			Pipeline:  pipeline,
			StartedAt: time.Now().UTC(),
			Seed:      p.cfg.Train.Seed,
			Metrics:   map[string]float64{},
		},
		logger: p.logger.With("run_id", id, "pipeline", pipeline),
	}
}

func (r *run) emit(ctx context.Context, e model.Entry) error {
	e.RunID = r.info.ID
	e.Pipeline = r.info.Pipeline
	if err := r.p.output.Write(ctx, e); err != nil {
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

func (r *run) banner(ctx context.Context, title string) error {
	return r.emit(ctx, model.Entry{Kind: model.EntryBanner, Title: title})
}

func (r *run) message(ctx context.Context, msg string) error {
	return r.emit(ctx, model.Entry{Kind: model.EntryMessage, Message: msg})
}

func (r *run) loadOptions() []dataset.Option {
	if r.p.progress == nil {
		return nil
	}
	return []dataset.Option{dataset.WithProgress(r.p.progress)}
}

// engineOptions returns the fitting options with an iteration progress bar
// attached when progress is enabled. The returned func stops the bar.
func (r *run) engineOptions() (engine.Options, func()) {
	opts := r.p.cfg.Train.EngineOptions()
	logger := r.logger
	if r.p.progress == nil {
		opts.Classifier.Progress = func(iter int, loss float64) {
			logger.Debug("training", "iteration", iter, "loss", loss)
		}
		return opts, func() {}
	}

	bar := pb.New(opts.Classifier.MaxIterations)
	bar.Set("prefix", "training: ")
	bar.SetWriter(r.p.progress)
	bar.Start()
	opts.Classifier.Progress = func(iter int, loss float64) {
		bar.SetCurrent(int64(iter))
		logger.Debug("training", "iteration", iter, "loss", loss)
	}
	return opts, func() { bar.Finish() }
}

// finish stamps the run and records it in the ledger.
func (r *run) finish(ctx context.Context) (model.Run, error) {
	r.info.FinishedAt = time.Now().UTC()
	if r.p.history != nil {
		if err := r.p.history.Record(ctx, r.info); err != nil {
			return r.info, fmt.Errorf("pipeline history: %w", err)
		}
	}
	r.logger.Info("run finished", "duration", r.info.Duration(), "train_rows", r.info.TrainRows, "test_rows", r.info.TestRows)
	return r.info, nil
}
