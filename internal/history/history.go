// Package history keeps a ledger of pipeline runs in a SQLite database.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/crimson-sun/teximal/internal/model"
)

// Store records and lists runs.
type Store struct {
	db *sqlx.DB
}

// runRow is the database shape of a model.Run. Times are unix nanoseconds.
type runRow struct {
	ID         string `db:"id"`
	Pipeline   string `db:"pipeline"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Seed       int64  `db:"seed"`
	TrainRows  int    `db:"train_rows"`
	TestRows   int    `db:"test_rows"`
	Metrics    string `db:"metrics"`
	ModelPath  string `db:"model_path"`
}

// Open opens or creates the ledger at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		pipeline TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		train_rows INTEGER NOT NULL,
		test_rows INTEGER NOT NULL,
		metrics TEXT NOT NULL,
		model_path TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record inserts run. Recording the same run ID twice is an error.
func (s *Store) Record(ctx context.Context, run model.Run) error {
	metrics, err := encodeMetrics(run.Metrics)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", run.ID, err)
	}
	row := runRow{
		ID:         run.ID,
		Pipeline:   run.Pipeline,
		StartedAt:  run.StartedAt.UnixNano(),
		FinishedAt: run.FinishedAt.UnixNano(),
		Seed:       run.Seed,
		TrainRows:  run.TrainRows,
		TestRows:   run.TestRows,
		Metrics:    metrics,
		ModelPath:  run.ModelPath,
	}
	query := `INSERT INTO runs (id, pipeline, started_at, finished_at, seed, train_rows, test_rows, metrics, model_path)
		VALUES (:id, :pipeline, :started_at, :finished_at, :seed, :train_rows, :test_rows, :metrics, :model_path)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("history: record %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs first. An empty pipeline matches every
// pipeline; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, pipeline string, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []runRow
	query := `SELECT id, pipeline, started_at, finished_at, seed, train_rows, test_rows, metrics, model_path
		FROM runs WHERE (? = '' OR pipeline = ?) ORDER BY started_at DESC, id LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, query, pipeline, pipeline, limit); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}

	runs := make([]model.Run, 0, len(rows))
	for _, r := range rows {
		metrics, err := decodeMetrics(r.Metrics)
		if err != nil {
			return nil, fmt.Errorf("history: list: run %s: %w", r.ID, err)
		}
		runs = append(runs, model.Run{
			ID:         r.ID,
			Pipeline:   r.Pipeline,
			StartedAt:  time.Unix(0, r.StartedAt).UTC(),
			FinishedAt: time.Unix(0, r.FinishedAt).UTC(),
			Seed:       r.Seed,
			TrainRows:  r.TrainRows,
			TestRows:   r.TestRows,
			Metrics:    metrics,
			ModelPath:  r.ModelPath,
		})
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeMetrics writes undefined values as JSON null.
func encodeMetrics(m map[string]float64) (string, error) {
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetrics(s string) (map[string]float64, error) {
	var in map[string]*float64
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = math.NaN()
			continue
		}
		out[k] = *v
	}
	return out, nil
}
