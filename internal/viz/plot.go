package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
)

// PlotDelays draws measured and predicted group delays (ns) against
// sample index.
func PlotDelays(freqs, measured, predicted []float64, width, height int) string {
	if len(freqs) == 0 {
		return ""
	}
	m := scaled(measured, 1e9)
	p := scaled(predicted, 1e9)
	caption := fmt.Sprintf("group delay (ns), %.1f-%.1f GHz", freqs[0]/1e9, freqs[len(freqs)-1]/1e9)

	series := [][]float64{m}
	legends := []string{"measured"}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan}
	if len(p) == len(m) {
		series = append(series, p)
		legends = append(legends, "fit")
		colors = append(colors, asciigraph.Magenta)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

// PlotEvolution draws n_max (10¹⁹ m⁻³) with its ±1σ envelope.
func PlotEvolution(points []evolution.Point, width, height int) string {
	if len(points) == 0 {
		return ""
	}
	mid := make([]float64, len(points))
	lo := make([]float64, len(points))
	hi := make([]float64, len(points))
	for i, p := range points {
		mid[i] = p.PeakDensity / 1e19
		lo[i] = (p.PeakDensity - p.Uncertainty) / 1e19
		hi[i] = (p.PeakDensity + p.Uncertainty) / 1e19
	}
	caption := fmt.Sprintf("n_max (1e19 m^-3), %.2f-%.2f ms", points[0].Time, points[len(points)-1].Time)

	return asciigraph.PlotMany([][]float64{lo, mid, hi},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.DarkGray, asciigraph.Cyan, asciigraph.DarkGray),
	)
}

func scaled(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}
