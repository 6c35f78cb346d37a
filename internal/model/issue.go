package model

// Issue is one row of the GitHub issue dataset.
type Issue struct {
	ID          string
	Area        string // label, e.g. "area-System.Net"
	Title       string
	Description string
}

// IssuePrediction is the output of the issue model for one issue.
type IssuePrediction struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Area        string    `json:"area"`
	Probability float64   `json:"probability"`
	Scores      []float64 `json:"scores,omitempty"` // per-class probabilities in key order
}
