package teximal

// Review is a labelled review used for training.
type Review struct {
	Text     string
	Positive bool
}

// Prediction is the sentiment of one text.
type Prediction struct {
	Text        string  `json:"text"`
	Positive    bool    `json:"positive"`
	Probability float64 `json:"probability"` // P(positive)
	Score       float64 `json:"score"`       // raw margin, >0 means positive
}

// Issue is a GitHub issue. Area is the label and is ignored by Predict.
type Issue struct {
	ID          string
	Area        string
	Title       string
	Description string
}

// AreaPrediction is the predicted area of one issue.
type AreaPrediction struct {
	Area        string             `json:"area"`
	Probability float64            `json:"probability"`
	Scores      map[string]float64 `json:"scores"` // probability of every known area
}
