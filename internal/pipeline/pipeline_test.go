package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/teximal/internal/config"
	"github.com/crimson-sun/teximal/internal/history"
	"github.com/crimson-sun/teximal/internal/model"
	"github.com/crimson-sun/teximal/internal/output"
	"github.com/crimson-sun/teximal/internal/output/stdout"
)

// mockOutput records entries for assertions.
type mockOutput struct {
	mu      sync.Mutex
	entries []model.Entry
	closed  bool
}

func (m *mockOutput) Write(_ context.Context, e model.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockOutput) Close() error {
	m.closed = true
	return nil
}

func (m *mockOutput) titles(kind model.EntryKind) []string {
	var out []string
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e.Title)
		}
	}
	return out
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = "testdata"
	cfg.Train.FeatureBits = 10
	cfg.Store.ModelDir = filepath.Join(t.TempDir(), "models")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSentiment(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.ROCPlot = filepath.Join(t.TempDir(), "roc.png")
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	out := &mockOutput{}
	var progress bytes.Buffer
	p := New(cfg, out, WithLogger(quietLogger()), WithHistory(store), WithProgress(&progress))

	run, err := p.Sentiment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineSentiment, run.Pipeline)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 24, run.TrainRows)
	assert.Equal(t, 6, run.TestRows)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
	for _, key := range []string{"accuracy", "auc", "f1_score"} {
		require.Contains(t, run.Metrics, key)
	}
	assert.True(t, run.Metrics["accuracy"] >= 0 && run.Metrics["accuracy"] <= 1)

	assert.Equal(t, []string{
		"BUILDING AND TRAINING MODEL",
		"DONE TRAINING",
		"Evaluating Model accuracy with Test data",
		"End of model evaluation",
	}, out.titles(model.EntryBanner))

	var preds []model.SentimentPrediction
	for _, e := range out.entries {
		assert.Equal(t, run.ID, e.RunID)
		assert.Equal(t, model.PipelineSentiment, e.Pipeline)
		preds = append(preds, e.Sentiment...)
	}
	require.Len(t, preds, 4)
	assert.Equal(t, SentimentSample, preds[0].Text)
	for _, pr := range preds {
		assert.True(t, pr.Probability >= 0 && pr.Probability <= 1)
	}

	_, err = os.Stat(run.ModelPath)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.Output.ROCPlot)
	assert.NoError(t, err)
	assert.NotZero(t, progress.Len())

	runs, err := store.List(context.Background(), model.PipelineSentiment, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, run.ModelPath, runs[0].ModelPath)
}

func TestSentimentDeterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.ModelDir = ""

	a, err := New(cfg, &mockOutput{}, WithLogger(quietLogger())).Sentiment(context.Background())
	require.NoError(t, err)
	b, err := New(cfg, &mockOutput{}, WithLogger(quietLogger())).Sentiment(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Metrics, b.Metrics)
	assert.Empty(t, a.ModelPath)
}

func TestSentimentWithoutTestRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.Train.TestFraction = 0

	out := &mockOutput{}
	run, err := New(cfg, out, WithLogger(quietLogger())).Sentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, run.TrainRows)
	assert.Equal(t, 0, run.TestRows)
	assert.NotContains(t, run.Metrics, "accuracy")
	assert.Contains(t, out.titles(model.EntryBanner), "DONE TRAINING")
}

func TestSentimentTextReport(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	p := New(cfg, stdout.New(&buf, output.FormatText, false), WithLogger(quietLogger()))

	_, err := p.Sentiment(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	report := buf.String()
	for _, want := range []string{
		"=============== BUILDING AND TRAINING MODEL ===============\n",
		"=============== DONE TRAINING ===============\n",
		"Model quality metrics evaluation\n--------------------------------\n",
		"Accuracy: ",
		"Auc: ",
		"F1Score: ",
		"Sentiment: This was a very bad steak | Prediction: ",
		"Sentiment: I love this spaghetti. | Prediction: ",
		"=============== End of Predictions ===============\n",
	} {
		assert.Contains(t, report, want)
	}
}

func TestIssues(t *testing.T) {
	cfg := testConfig(t)
	out := &mockOutput{}
	p := New(cfg, out, WithLogger(quietLogger()))

	run, err := p.Issues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.PipelineIssues, run.Pipeline)
	assert.Equal(t, 18, run.TrainRows)
	assert.Equal(t, 3, run.TestRows, "row with unknown area is skipped")
	for _, key := range []string{"micro_accuracy", "macro_accuracy", "log_loss", "log_loss_reduction"} {
		assert.Contains(t, run.Metrics, key)
	}
	_, err = os.Stat(run.ModelPath)
	assert.NoError(t, err)

	var issues []*model.IssuePrediction
	var boxed int
	for _, e := range out.entries {
		if e.Issue != nil {
			issues = append(issues, e.Issue)
		}
		if e.Kind == model.EntryMetrics && e.Style == model.StyleBoxed {
			boxed++
		}
	}
	assert.Equal(t, 1, boxed)
	require.Len(t, issues, 2)
	assert.Equal(t, IssueTrainingSample.Title, issues[0].Title)
	assert.Equal(t, IssueSample.Title, issues[1].Title)
	areas := []string{"area-System.Net", "area-System.Data", "area-System.IO"}
	for _, pred := range issues {
		assert.Contains(t, areas, pred.Area)
		assert.True(t, pred.Probability > 0 && pred.Probability <= 1)
	}
	assert.Equal(t, []string{
		filepath.Join("testdata", "issues_train.tsv"),
		filepath.Join("testdata", "issues_test.tsv"),
	}, messages(out))
}

func TestIssuesTextReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.ModelDir = ""
	var buf bytes.Buffer

	_, err := New(cfg, stdout.New(&buf, output.FormatText, false), WithLogger(quietLogger())).Issues(context.Background())
	require.NoError(t, err)

	report := buf.String()
	assert.Contains(t, report, "=============== Single Prediction just-trained-model - Result: area-System.")
	assert.Contains(t, report, "*       Metrics for Multi-class Classification model - Test Data\n")
	assert.Contains(t, report, "*       MicroAccuracy:    ")
	assert.Contains(t, report, "=============== Single Prediction - Result: area-System.")
	assert.Equal(t, 2, strings.Count(report, "*****\n"))
}

func TestRunErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dir = filepath.Join(t.TempDir(), "missing")
	p := New(cfg, &mockOutput{}, WithLogger(quietLogger()))

	_, err := p.Sentiment(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = p.Issues(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = New(testConfig(t), &mockOutput{}, WithLogger(quietLogger()))
	_, err = p.Sentiment(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	out := &mockOutput{}
	require.NoError(t, New(config.Default(), out).Close())
	assert.True(t, out.closed)
}

func messages(m *mockOutput) []string {
	var out []string
	for _, e := range m.entries {
		if e.Kind == model.EntryMessage {
			out = append(out, e.Message)
		}
	}
	return out
}
