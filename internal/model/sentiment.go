package model

// SentimentInput is one row of the sentiment dataset: review text and its
// positive (true) or negative (false) label.
type SentimentInput struct {
	Text  string
	Label bool
}

// SentimentPrediction is the output of the sentiment model for one text.
type SentimentPrediction struct {
	Text        string  `json:"text"`
	Prediction  bool    `json:"prediction"`
	Probability float64 `json:"probability"` // calibrated P(positive)
	Score       float64 `json:"score"`       // raw margin, >0 means positive
}

// Sentiment returns "Positive" or "Negative" for display.
func (p SentimentPrediction) Sentiment() string {
	if p.Prediction {
		return "Positive"
	}
	return "Negative"
}
