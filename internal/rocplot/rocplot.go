// Package rocplot draws ROC curves to image files.
package rocplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/crimson-sun/teximal/internal/engine/metrics"
)

// ErrNoCurve is returned when there are no points to draw.
var ErrNoCurve = errors.New("rocplot: empty ROC curve")

// Save draws curve with the chance diagonal and writes it to path. The
// image format follows the file extension (.png, .svg, .pdf, ...).
func Save(path string, curve []metrics.ROCPoint, auc float64) error {
	if len(curve) == 0 {
		return ErrNoCurve
	}

	p := plot.New()
	p.Title.Text = "ROC curve"
	if !math.IsNaN(auc) {
		p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.4f)", auc)
	}
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(curve))
	for i, c := range curve {
		pts[i].X = c.FPR
		pts[i].Y = c.TPR
	}
	roc, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("rocplot: %w", err)
	}
	roc.Color = color.RGBA{B: 255, A: 255, R: 50, G: 50}
	roc.LineStyle.Width = vg.Points(2)
	p.Add(roc)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("rocplot: %w", err)
	}
	chance.Color = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(chance)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("rocplot: save %s: %w", path, err)
	}
	return nil
}
