package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crimson-sun/teximal/internal/model"
)

const starRule = "*************************************************************************************************************"

// Banner returns title framed the way every report section is framed.
func Banner(title string) string {
	return "=============== " + title + " ==============="
}

// RenderText returns the console rendering of entry, newline-terminated.
func RenderText(e model.Entry) string {
	var b strings.Builder
	switch e.Kind {
	case model.EntryBanner:
		b.WriteString(Banner(e.Title) + "\n")
	case model.EntryMetrics:
		if e.Style == model.StyleBoxed {
			renderBoxed(&b, e)
		} else {
			renderPlain(&b, e)
		}
	case model.EntryPrediction:
		renderPrediction(&b, e)
	default:
		b.WriteString(e.Message + "\n")
	}
	return b.String()
}

func renderPlain(b *strings.Builder, e model.Entry) {
	title := e.Title
	if title == "" {
		title = "Model quality metrics evaluation"
	}
	fmt.Fprintf(b, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	for _, m := range e.Metrics {
		fmt.Fprintf(b, "%s: %s\n", m.Name, formatMetric(m))
	}
}

func renderBoxed(b *strings.Builder, e model.Entry) {
	b.WriteString(starRule + "\n")
	fmt.Fprintf(b, "*       %s\n", e.Title)
	b.WriteString("*" + strings.Repeat("-", len(starRule)-1) + "\n")
	width := 0
	for _, m := range e.Metrics {
		width = max(width, len(m.Name)+1)
	}
	for _, m := range e.Metrics {
		fmt.Fprintf(b, "*       %-*s %s\n", width, m.Name+":", formatMetric(m))
	}
	b.WriteString(starRule + "\n")
}

func renderPrediction(b *strings.Builder, e model.Entry) {
	if e.Issue != nil {
		b.WriteString(Banner(fmt.Sprintf("%s - Result: %s", e.Title, e.Issue.Area)) + "\n")
		return
	}
	if e.Title != "" {
		b.WriteString("\n" + Banner(e.Title) + "\n\n")
	}
	for _, p := range e.Sentiment {
		fmt.Fprintf(b, "Sentiment: %s | Prediction: %s | Probability: %s \n", p.Text, p.Sentiment(), formatProbability(p.Probability))
	}
	if e.Title != "" {
		b.WriteString(Banner("End of Predictions") + "\n\n")
	}
}

// formatMetric renders percentages with two decimals and other values with
// up to three.
func formatMetric(m model.Metric) string {
	switch {
	case math.IsNaN(m.Value):
		return "NaN"
	case m.Percent:
		return fmt.Sprintf("%.2f%%", m.Value*100)
	default:
		return strconv.FormatFloat(math.Round(m.Value*1000)/1000, 'f', -1, 64)
	}
}

// formatProbability prints the shortest single-precision representation.
func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 32)
}
