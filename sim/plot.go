package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// NewPlot creates new plot of the simulation result from the three data series:
// noisy:    measured values
// true:     true signal values
// filtered: filter estimates
// Smoothed estimates are added as a fourth series when present.
// The plot title reports the variance of measurements and of the filter estimate error.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * the supplied result is nil or empty
// * the result series have different lengths
// * gonum plot fails to create line plotters
func NewPlot(r *Result) (*plot.Plot, error) {
	if r == nil || r.Len() == 0 {
		return nil, fmt.Errorf("invalid data supplied")
	}

	n := r.Len()
	if len(r.True) != n || len(r.Noisy) != n || len(r.Filtered) != n {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = fmt.Sprintf("Variance before: %.2f, after: %.2f", r.VarianceBefore, r.VarianceAfter)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Value"

	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	noisyLine, err := plotter.NewLine(makePoints(r.Time, r.Noisy))
	if err != nil {
		return nil, fmt.Errorf("failed to create noisy signal line: %v", err)
	}
	noisyLine.LineStyle.Color = color.RGBA{R: 255, G: 165, A: 153}
	noisyLine.LineStyle.Width = vg.Points(1)

	p.Add(noisyLine)
	p.Legend.Add("noisy signal", noisyLine)

	trueLine, err := plotter.NewLine(makePoints(r.Time, r.True))
	if err != nil {
		return nil, fmt.Errorf("failed to create true signal line: %v", err)
	}
	trueLine.LineStyle.Color = color.RGBA{B: 255, A: 255}
	trueLine.LineStyle.Width = vg.Points(1.5)
	trueLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	p.Add(trueLine)
	p.Legend.Add("true signal", trueLine)

	filterLine, err := plotter.NewLine(makePoints(r.Time, r.Filtered))
	if err != nil {
		return nil, fmt.Errorf("failed to create filter line: %v", err)
	}
	filterLine.LineStyle.Color = color.RGBA{G: 128, A: 255}
	filterLine.LineStyle.Width = vg.Points(1.5)

	p.Add(filterLine)
	p.Legend.Add("kalman estimate", filterLine)

	if len(r.Smoothed) == n {
		smoothLine, err := plotter.NewLine(makePoints(r.Time, r.Smoothed))
		if err != nil {
			return nil, fmt.Errorf("failed to create smoothed line: %v", err)
		}
		smoothLine.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
		smoothLine.LineStyle.Width = vg.Points(1.5)

		p.Add(smoothLine)
		p.Legend.Add("rts smoothed", smoothLine)
	}

	return p, nil
}

func makePoints(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range pts {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}

	return pts
}
