// Package report draws fit figures: measured group delay against probe
// frequency with the fitted curve and its ±zσ band.
package report

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/forward"
)

var ErrNoData = errors.New("report: nothing to plot")

// Figure holds everything drawn on one fit figure. Frequencies are in Hz
// and delays in seconds; the figure uses GHz and ns.
type Figure struct {
	Title string
	Label string

	// Frequencies and Measured cover the whole sweep. Samples from Used
	// on are drawn as excluded. When 0 < KaStart < Used the fitted samples
	// are split into K and Ka band groups.
	Frequencies []float64
	Measured    []float64
	Used        int
	KaStart     int

	CurveFrequencies []float64
	Curve            []float64
	// Sigma is the half width of the band around Curve before scaling by Z.
	Sigma float64
	Z     float64
}

// FromResult builds a figure for res. freqs and delays are the full
// measurement, of which res used the leading res.Used samples; the curve
// is sampled at points frequencies across the fitted range.
func FromResult(ctx context.Context, e *forward.Engine, res *fit.Result, freqs, delays []float64, points int) (Figure, error) {
	if len(res.Frequencies) == 0 {
		return Figure{}, ErrNoData
	}
	if points < 2 {
		points = 2
	}
	lo := res.Frequencies[0]
	hi := res.Frequencies[len(res.Frequencies)-1]
	if len(freqs) > 0 {
		hi = math.Max(hi, freqs[len(freqs)-1])
	}
	cf := make([]float64, points)
	floats.Span(cf, lo, hi)

	curve, err := e.Predict(ctx, cf, res.Params)
	if err != nil {
		return Figure{}, fmt.Errorf("report: fitted curve: %w", err)
	}

	return Figure{
		Title:            fmt.Sprintf("%s fit, n_max = %.3g m^-3", res.Model.Name(), res.PeakDensity()),
		Label:            res.Model.Name(),
		Frequencies:      freqs,
		Measured:         delays,
		Used:             res.Used,
		CurveFrequencies: cf,
		Curve:            curve,
		Sigma:            res.ResidualStdDev(),
		Z:                1,
	}, nil
}

// Plot assembles the figure.
func (f Figure) Plot() (*plot.Plot, error) {
	if len(f.Frequencies) == 0 || len(f.Frequencies) != len(f.Measured) {
		return nil, ErrNoData
	}
	if len(f.CurveFrequencies) != len(f.Curve) {
		return nil, fmt.Errorf("report: %d curve frequencies for %d values", len(f.CurveFrequencies), len(f.Curve))
	}

	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "Probe frequency (GHz)"
	p.Y.Label.Text = "Group delay (ns)"
	p.Add(plotter.NewGrid())

	used := min(max(f.Used, 0), len(f.Frequencies))
	ka := min(max(f.KaStart, 0), used)

	if len(f.Curve) > 1 && f.Sigma > 0 && !math.IsNaN(f.Sigma) {
		z := f.Z
		if z == 0 {
			z = 1
		}
		band, err := plotter.NewPolygon(bandXYs(f.CurveFrequencies, f.Curve, z*f.Sigma))
		if err != nil {
			return nil, err
		}
		band.Color = color.NRGBA{A: 38}
		band.LineStyle.Width = 0
		p.Add(band)
	}

	type group struct {
		from, to int
		name     string
		color    color.Color
		shape    draw.GlyphDrawer
	}
	groups := []group{{0, used, "measured", plotutil.Color(1), draw.CircleGlyph{}}}
	if ka > 0 && ka < used {
		groups = []group{
			{0, ka, "K band", plotutil.Color(2), draw.CircleGlyph{}},
			{ka, used, "Ka band", plotutil.Color(1), draw.CircleGlyph{}},
		}
	}
	groups = append(groups, group{used, len(f.Frequencies), "excluded", plotutil.Color(4), draw.CrossGlyph{}})
	for _, g := range groups {
		if g.to <= g.from {
			continue
		}
		s, err := plotter.NewScatter(xys(f.Frequencies[g.from:g.to], f.Measured[g.from:g.to]))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = g.color
		s.GlyphStyle.Shape = g.shape
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(g.name, s)
	}

	if len(f.Curve) > 1 {
		l, err := plotter.NewLine(xys(f.CurveFrequencies, f.Curve))
		if err != nil {
			return nil, err
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = color.Black
		p.Add(l)
		label := f.Label
		if label == "" {
			label = "fit"
		}
		p.Legend.Add(label, l)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

// Save writes the figure; the format follows the file extension.
func (f Figure) Save(path string, width, height vg.Length) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	if width == 0 {
		width = 8 * vg.Inch
	}
	if height == 0 {
		height = 5.5 * vg.Inch
	}
	return p.Save(width, height, path)
}

func xys(freqs, delays []float64) plotter.XYs {
	pts := make(plotter.XYs, len(freqs))
	for i := range freqs {
		pts[i].X = freqs[i] / 1e9
		pts[i].Y = delays[i] * 1e9
	}
	return pts
}

// bandXYs traces the upper edge left to right and the lower edge back.
func bandXYs(freqs, curve []float64, half float64) plotter.XYs {
	n := len(freqs)
	pts := make(plotter.XYs, 2*n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: freqs[i] / 1e9, Y: (curve[i] + half) * 1e9}
		j := n - 1 - i
		pts[n+i] = plotter.XY{X: freqs[j] / 1e9, Y: (curve[j] - half) * 1e9}
	}
	return pts
}
