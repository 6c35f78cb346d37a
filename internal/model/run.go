package model

import "time"

// Pipeline names.
const (
	PipelineSentiment = "sentiment"
	PipelineIssues    = "issues"
)

// Run describes one pipeline execution.
type Run struct {
	ID         string             `json:"id"`
	Pipeline   string             `json:"pipeline"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Seed       int64              `json:"seed"`
	TrainRows  int                `json:"train_rows"`
	TestRows   int                `json:"test_rows"`
	Metrics    map[string]float64 `json:"metrics"`
	ModelPath  string             `json:"model_path,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
