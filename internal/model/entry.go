package model

import (
	"encoding/json"
	"math"
)

// EntryKind distinguishes the shapes of report entries.
type EntryKind string

const (
	EntryBanner     EntryKind = "banner"
	EntryMetrics    EntryKind = "metrics"
	EntryPrediction EntryKind = "prediction"
	EntryMessage    EntryKind = "message"
)

// Style selects how a metrics block is rendered for humans.
type Style string

const (
	StylePlain Style = "plain" // "Model quality metrics evaluation" block
	StyleBoxed Style = "boxed" // starred multi-class block
)

// Metric is a named value with a display format.
type Metric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent bool    `json:"-"` // render as percentage with 2 decimals
}

// MarshalJSON encodes undefined values (NaN, ±Inf) as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	out := struct {
		Name  string   `json:"name"`
		Value *float64 `json:"value"`
	}{Name: m.Name}
	if !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0) {
		v := m.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// Entry is one unit of report output. Outputs render entries either as
// human-readable console text or as NDJSON.
type Entry struct {
	RunID     string                `json:"run_id"`
	Pipeline  string                `json:"pipeline"`
	Kind      EntryKind             `json:"kind"`
	Title     string                `json:"title,omitempty"`
	Style     Style                 `json:"-"`
	Metrics   []Metric              `json:"metrics,omitempty"`
	Sentiment []SentimentPrediction `json:"sentiment,omitempty"`
	Issue     *IssuePrediction      `json:"issue,omitempty"`
	Message   string                `json:"message,omitempty"`
}
