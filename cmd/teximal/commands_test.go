package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youta-t/flarc"

	"github.com/crimson-sun/teximal/internal/config"
	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/engine/testdata"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/modelstore"
	"github.com/crimson-sun/teximal/internal/pipeline"
)

func TestApplyRunFlags(t *testing.T) {
	base := config.Default()
	f := runFlagsFrom(base)
	f.Seed = 3
	f.Output = "json"
	f.History = "runs.db"

	cfg, err := applyRunFlags(base, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Train.Seed)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "runs.db", cfg.Store.HistoryDB)
	assert.Equal(t, base.Data, cfg.Data)

	f.Output = "xml"
	_, err = applyRunFlags(base, f)
	assert.ErrorIs(t, err, flarc.ErrUsage)
}

func TestRunFlagsRoundTrip(t *testing.T) {
	base := config.Default()
	cfg, err := applyRunFlags(base, runFlagsFrom(base))
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestBuildOutputFansOutToFile(t *testing.T) {
	cfg := config.Default()
	cfg.Output.File = filepath.Join(t.TempDir(), "report.jsonl")
	var buf bytes.Buffer

	out, err := buildOutput(cfg, &buf)
	require.NoError(t, err)
	require.NoError(t, out.Write(context.Background(), model.Entry{Kind: model.EntryBanner, Title: "DONE TRAINING"}))
	require.NoError(t, out.Close())

	assert.Equal(t, "=============== DONE TRAINING ===============\n", buf.String())

	cfg.Output.Format = "csv"
	_, err = buildOutput(cfg, &buf)
	assert.ErrorIs(t, err, flarc.ErrUsage)
}

func TestBuildOutputRotatesReportFile(t *testing.T) {
	cfg := config.Default()
	cfg.Output.File = filepath.Join(t.TempDir(), "report.jsonl")
	cfg.Output.FileMaxBytes = 1
	cfg.Output.FileMaxBackups = 1
	var buf bytes.Buffer

	out, err := buildOutput(cfg, &buf)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, out.Write(context.Background(), model.Entry{Kind: model.EntryBanner, Title: "DONE TRAINING"}))
	}
	require.NoError(t, out.Close())

	assert.FileExists(t, cfg.Output.File)
	assert.FileExists(t, cfg.Output.File+".1")
	assert.NoFileExists(t, cfg.Output.File+".2")
}

func TestRunPipelineReportsError(t *testing.T) {
	cfg := config.Default()
	cfg.Store.ModelDir = ""
	var stdout, stderr bytes.Buffer
	boom := errors.New("boom")

	err := runPipeline(context.Background(), cfg, &stdout, &stderr, func(context.Context, *pipeline.Pipeline) (model.Run, error) {
		return model.Run{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, stderr.String(), "pipeline failed")
}

func TestPredictSentiment(t *testing.T) {
	rows, err := testdata.Sentiment()
	require.NoError(t, err)
	m, err := engine.FitSentiment(context.Background(), rows, engine.DefaultOptions())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.ModelDir = t.TempDir()
	require.NoError(t, modelstore.SaveSentiment(cfg.Store.ModelPath(model.PipelineSentiment), "run-9", m))

	entries, err := predict(cfg, PredictFlags{Kind: model.PipelineSentiment}, []string{"great food", "bad food"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-9", entries[0].RunID)
	require.Len(t, entries[0].Sentiment, 2)
	assert.Equal(t, m.Predict("bad food"), entries[0].Sentiment[1])
}

func TestPredictIssues(t *testing.T) {
	rows, err := testdata.IssuesTrain()
	require.NoError(t, err)
	m, err := engine.FitIssues(context.Background(), rows, engine.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "issues.gob")
	require.NoError(t, modelstore.SaveIssues(path, "run-10", m))

	f := PredictFlags{Kind: model.PipelineIssues, Model: path, Description: "When connecting to the database, EF is crashing"}
	entries, err := predict(config.Default(), f, []string{"Entity Framework crashes"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Issue)
	assert.Equal(t, "Entity Framework crashes", entries[0].Issue.Title)
	assert.Contains(t, m.Areas(), entries[0].Issue.Area)

	_, err = predict(config.Default(), PredictFlags{Kind: model.PipelineSentiment, Model: path}, []string{"x"})
	assert.ErrorIs(t, err, modelstore.ErrKindMismatch)
}

func TestPredictDetectsKindFromHeader(t *testing.T) {
	rows, err := testdata.IssuesTrain()
	require.NoError(t, err)
	m, err := engine.FitIssues(context.Background(), rows, engine.DefaultOptions())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "issues.gob")
	require.NoError(t, modelstore.SaveIssues(path, "run-11", m))

	entries, err := predict(config.Default(), PredictFlags{Model: path}, []string{"SqlConnection pool exhausted"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Issue)
	assert.Equal(t, model.PipelineIssues, entries[0].Pipeline)
	assert.Equal(t, "run-11", entries[0].RunID)

	_, err = predict(config.Default(), PredictFlags{Model: filepath.Join(t.TempDir(), "missing.gob")}, []string{"x"})
	assert.Error(t, err)
}

func TestPredictDefaultsToSentimentModel(t *testing.T) {
	rows, err := testdata.Sentiment()
	require.NoError(t, err)
	m, err := engine.FitSentiment(context.Background(), rows, engine.DefaultOptions())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.ModelDir = t.TempDir()
	require.NoError(t, modelstore.SaveSentiment(cfg.Store.ModelPath(model.PipelineSentiment), "run-12", m))

	entries, err := predict(cfg, PredictFlags{}, []string{"great food"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.PipelineSentiment, entries[0].Pipeline)
	assert.Len(t, entries[0].Sentiment, 1)
}

func TestPredictUsageErrors(t *testing.T) {
	cfg := config.Default()
	_, err := predict(cfg, PredictFlags{Kind: "spam"}, []string{"x"})
	assert.ErrorIs(t, err, flarc.ErrUsage)

	cfg.Store.ModelDir = ""
	_, err = predict(cfg, PredictFlags{Kind: model.PipelineSentiment}, []string{"x"})
	assert.ErrorIs(t, err, flarc.ErrUsage)
}

func TestWriteRuns(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.Run{{
		ID:         "run-1",
		Pipeline:   model.PipelineSentiment,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		TrainRows:  80,
		TestRows:   20,
		Metrics:    map[string]float64{"auc": 0.9, "accuracy": 0.8},
	}}

	var table bytes.Buffer
	require.NoError(t, writeRunsTable(&table, runs))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "run-1")
	assert.Contains(t, lines[1], "2s")
	assert.Contains(t, lines[1], "accuracy=0.8000 auc=0.9000")

	var js bytes.Buffer
	require.NoError(t, writeRunsJSON(&js, runs))
	var decoded struct {
		ID      string `json:"id"`
		Metrics []struct {
			Name string `json:"name"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.ID)
	require.Len(t, decoded.Metrics, 2)
	assert.Equal(t, "accuracy", decoded.Metrics[0].Name)
}

func TestNewCommand(t *testing.T) {
	cmd, err := newCommand(config.Default())
	require.NoError(t, err)
	assert.NotNil(t, cmd)
}

func TestInitLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := config.Default()
	cfg.LogLevel = "debug"
	logger := initLogging(cfg)

	assert.Same(t, logger, slog.Default())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	cfg.LogLevel = "error"
	logger = initLogging(cfg)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
