package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/youta-t/flarc"

	"github.com/crimson-sun/teximal/internal/config"
	"github.com/crimson-sun/teximal/internal/history"
	"github.com/crimson-sun/teximal/internal/logging"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/modelstore"
	"github.com/crimson-sun/teximal/internal/output"
	"github.com/crimson-sun/teximal/internal/output/file"
	"github.com/crimson-sun/teximal/internal/output/multi"
	"github.com/crimson-sun/teximal/internal/output/stdout"
	"github.com/crimson-sun/teximal/internal/pipeline"
)

// RunFlags override configuration for the training pipelines.
type RunFlags struct {
	DataDir    string `flag:"data-dir" help:"Directory holding the datasets."`
	Seed       int    `flag:"seed" help:"Seed of the train/test split."`
	Output     string `flag:"output" metavar:"text|json" help:"Report format on stdout."`
	OutputFile string `flag:"output-file" help:"Also append the report as NDJSON to this file."`
	ModelDir   string `flag:"model-dir" help:"Directory the fitted model is saved in. Empty disables saving."`
	History    string `flag:"history" help:"SQLite run ledger to record the run in. Empty disables it."`
	ROCPlot    string `flag:"roc-plot" help:"Write the sentiment ROC curve to this image file (.png, .svg)."`
	Progress   bool   `flag:"progress" help:"Draw progress bars on stderr."`
	LogLevel   string `flag:"log-level" metavar:"debug|info|warn|error" help:"Minimum level of logs on stderr."`
}

// PredictFlags select the saved model to predict with.
type PredictFlags struct {
	Kind        string `flag:"kind" metavar:"sentiment|issues" help:"Kind of model to load. Read from the model file when --model is given, else sentiment."`
	Model       string `flag:"model" help:"Model file. Defaults to the model of --kind in the model directory."`
	Description string `flag:"description" help:"Issue description shared by every title (issues only)."`
	Output      string `flag:"output" metavar:"text|json" help:"Report format on stdout."`
}

// HistoryFlags filter the run ledger listing.
type HistoryFlags struct {
	DB       string `flag:"db" help:"SQLite run ledger."`
	Pipeline string `flag:"pipeline" metavar:"sentiment|issues" help:"Only list runs of this pipeline."`
	Limit    int    `flag:"limit" help:"Maximum number of runs to list. 0 lists all."`
	Output   string `flag:"output" metavar:"text|json" help:"Listing format."`
}

const ARGS_TEXT = "TEXT"

func newCommand(cfg config.Config) (flarc.Command, error) {
	sentiment, err := newPipelineCommand(cfg,
		"train and evaluate the review sentiment model",
		`
Load the labelled reviews, hold out a seeded test split, fit a binary
sentiment classifier and report its accuracy, AUC and F1 score followed by
sample predictions.
`,
		func(ctx context.Context, p *pipeline.Pipeline) (model.Run, error) { return p.Sentiment(ctx) },
	)
	if err != nil {
		return nil, err
	}
	issues, err := newPipelineCommand(cfg,
		"train and evaluate the GitHub issue area model",
		`
Fit a multi-class classifier on the issue training file, evaluate it on the
issue test file and predict the area of sample issues.
`,
		func(ctx context.Context, p *pipeline.Pipeline) (model.Run, error) { return p.Issues(ctx) },
	)
	if err != nil {
		return nil, err
	}
	predict, err := newPredictCommand(cfg)
	if err != nil {
		return nil, err
	}
	hist, err := newHistoryCommand(cfg)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"text classification pipelines",
		struct{}{},
		flarc.WithSubcommand(model.PipelineSentiment, sentiment),
		flarc.WithSubcommand(model.PipelineIssues, issues),
		flarc.WithSubcommand("predict", predict),
		flarc.WithSubcommand("history", hist),
	)
}

func runFlagsFrom(cfg config.Config) RunFlags {
	return RunFlags{
		DataDir:    cfg.Data.Dir,
		Seed:       int(cfg.Train.Seed),
		Output:     cfg.Output.Format,
		OutputFile: cfg.Output.File,
		ModelDir:   cfg.Store.ModelDir,
		History:    cfg.Store.HistoryDB,
		ROCPlot:    cfg.Output.ROCPlot,
		Progress:   cfg.Progress,
		LogLevel:   cfg.LogLevel,
	}
}

// applyRunFlags returns cfg with the command line flags applied.
func applyRunFlags(cfg config.Config, f RunFlags) (config.Config, error) {
	cfg.Data.Dir = f.DataDir
	cfg.Train.Seed = int64(f.Seed)
	cfg.Output.Format = f.Output
	cfg.Output.File = f.OutputFile
	cfg.Store.ModelDir = f.ModelDir
	cfg.Store.HistoryDB = f.History
	cfg.Output.ROCPlot = f.ROCPlot
	cfg.Progress = f.Progress
	cfg.LogLevel = f.LogLevel
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	return cfg, nil
}

type pipelineFunc func(context.Context, *pipeline.Pipeline) (model.Run, error)

func newPipelineCommand(base config.Config, help, description string, fn pipelineFunc) (flarc.Command, error) {
	return flarc.NewCommand(
		help,
		runFlagsFrom(base),
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[RunFlags], _ []any) error {
			cfg, err := applyRunFlags(base, c.Flags())
			if err != nil {
				return err
			}
			return runPipeline(ctx, cfg, c.Stdout(), c.Stderr(), fn)
		},
		flarc.WithDescription(description),
	)
}

// runPipeline wires outputs, logging and the run ledger around fn.
func runPipeline(ctx context.Context, cfg config.Config, stdoutW, stderrW io.Writer, fn pipelineFunc) (err error) {
	logger := logging.New(stderrW, cfg.Output.Format == string(output.FormatJSON), logging.ParseLevel(cfg.LogLevel))

	out, err := buildOutput(cfg, stdoutW)
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Progress {
		opts = append(opts, pipeline.WithProgress(stderrW))
	}
	if cfg.Store.HistoryDB != "" {
		store, err := history.Open(ctx, cfg.Store.HistoryDB)
		if err != nil {
			out.Close()
			return err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}

	p := pipeline.New(cfg, out, opts...)
	defer func() { err = errors.Join(err, p.Close()) }()

	if _, err := fn(ctx, p); err != nil {
		logger.Error("pipeline failed", "err", err)
		return err
	}
	return nil
}

// buildOutput returns the console output, fanned out to an NDJSON file
// when one is configured.
func buildOutput(cfg config.Config, w io.Writer) (output.Output, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	console := stdout.New(w, format, cfg.Output.Pretty)
	if cfg.Output.File == "" {
		return console, nil
	}
	f, err := file.New(cfg.Output.File,
		file.WithMaxSize(cfg.Output.FileMaxBytes),
		file.WithMaxBackups(cfg.Output.FileMaxBackups),
	)
	if err != nil {
		return nil, err
	}
	return multi.New(console, f), nil
}

func newPredictCommand(cfg config.Config) (flarc.Command, error) {
	return flarc.NewCommand(
		"classify text with a saved model",
		PredictFlags{Output: cfg.Output.Format},
		flarc.Args{
			{
				Name: ARGS_TEXT, Required: true, Repeatable: true,
				Help: "Review text, or issue title with --kind issues.",
			},
		},
		func(ctx context.Context, c flarc.Commandline[PredictFlags], _ []any) error {
			entries, err := predict(cfg, c.Flags(), c.Args()[ARGS_TEXT])
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(c.Flags().Output)
			if err != nil {
				return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
			}
			out := stdout.New(c.Stdout(), format, false)
			for _, e := range entries {
				if err := out.Write(ctx, e); err != nil {
					return err
				}
			}
			return out.Close()
		},
		flarc.WithDescription(`
Load a model saved by the sentiment or issues command and classify every
TEXT argument. Nothing is trained.
`),
	)
}

// predict loads the model selected by f and classifies texts.
func predict(cfg config.Config, f PredictFlags, texts []string) ([]model.Entry, error) {
	kind, path := f.Kind, f.Model
	switch {
	case path != "" && kind == "":
		h, err := modelstore.ReadHeader(path)
		if err != nil {
			return nil, err
		}
		kind = h.Kind
	case path == "":
		if kind == "" {
			kind = model.PipelineSentiment
		}
		path = cfg.Store.ModelPath(kind)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: --model is required when no model directory is configured", flarc.ErrUsage)
	}

	switch kind {
	case model.PipelineSentiment:
		m, h, err := modelstore.LoadSentiment(path)
		if err != nil {
			return nil, err
		}
		return []model.Entry{{
			RunID:     h.RunID,
			Pipeline:  h.Kind,
			Kind:      model.EntryPrediction,
			Sentiment: m.PredictBatch(texts),
		}}, nil
	case model.PipelineIssues:
		m, h, err := modelstore.LoadIssues(path)
		if err != nil {
			return nil, err
		}
		entries := make([]model.Entry, 0, len(texts))
		for _, title := range texts {
			pred := m.Predict(model.Issue{Title: title, Description: f.Description})
			entries = append(entries, model.Entry{
				RunID:    h.RunID,
				Pipeline: h.Kind,
				Kind:     model.EntryPrediction,
				Title:    "Single Prediction",
				Issue:    &pred,
			})
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: unknown --kind %q (want sentiment or issues)", flarc.ErrUsage, kind)
	}
}

func newHistoryCommand(cfg config.Config) (flarc.Command, error) {
	return flarc.NewCommand(
		"list recorded pipeline runs",
		HistoryFlags{DB: cfg.Store.HistoryDB, Output: cfg.Output.Format},
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[HistoryFlags], _ []any) error {
			f := c.Flags()
			if f.DB == "" {
				return fmt.Errorf("%w: --db (or TEXIMAL_HISTORY_DB) is required", flarc.ErrUsage)
			}
			store, err := history.Open(ctx, f.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(ctx, f.Pipeline, f.Limit)
			if err != nil {
				return err
			}
			if f.Output == string(output.FormatJSON) {
				return writeRunsJSON(c.Stdout(), runs)
			}
			return writeRunsTable(c.Stdout(), runs)
		},
	)
}

func writeRunsJSON(w io.Writer, runs []model.Run) error {
	enc := json.NewEncoder(w)
	for _, r := range runs {
		metrics := make([]model.Metric, 0, len(r.Metrics))
		for _, name := range sortedKeys(r.Metrics) {
			metrics = append(metrics, model.Metric{Name: name, Value: r.Metrics[name]})
		}
		row := struct {
			model.Run
			Metrics []model.Metric `json:"metrics"`
		}{Run: r, Metrics: metrics}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeRunsTable(w io.Writer, runs []model.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPIPELINE\tSTARTED\tDURATION\tTRAIN\tTEST\tMETRICS")
	for _, r := range runs {
		var metrics []string
		for _, name := range sortedKeys(r.Metrics) {
			metrics = append(metrics, fmt.Sprintf("%s=%.4f", name, r.Metrics[name]))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Pipeline, r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond), r.TrainRows, r.TestRows,
			strings.Join(metrics, " "))
	}
	return tw.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
