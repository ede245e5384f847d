package viz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/storage"
)

func points(n int) []evolution.Point {
	out := make([]evolution.Point, n)
	for i := range out {
		out[i] = evolution.Point{
			Time:        60 + float64(i),
			PeakDensity: 1e19 + float64(i)*1e17,
			Uncertainty: 1e17,
			Iterations:  5,
		}
	}
	return out
}

func TestPlotDelays(t *testing.T) {
	freqs := []float64{18e9, 20e9, 22e9, 24e9}
	meas := []float64{1e-9, 1.2e-9, 1.5e-9, 1.9e-9}
	pred := []float64{1.01e-9, 1.19e-9, 1.52e-9, 1.88e-9}

	out := PlotDelays(freqs, meas, pred, 40, 8)
	assert.Contains(t, out, "18.0-24.0 GHz")
	assert.Contains(t, out, "measured")
	assert.Contains(t, out, "fit")

	assert.Empty(t, PlotDelays(nil, nil, nil, 40, 8))

	onlyMeasured := PlotDelays(freqs, meas, nil, 40, 8)
	assert.NotContains(t, onlyMeasured, "fit")
}

func TestPlotEvolution(t *testing.T) {
	out := PlotEvolution(points(5), 40, 6)
	assert.Contains(t, out, "60.00-64.00 ms")
	assert.Empty(t, PlotEvolution(nil, 40, 6))
}

func TestSparkline(t *testing.T) {
	s := Sparkline([]float64{1, 2, 3, 4}, 10)
	assert.Contains(t, s, "▁")
	assert.Contains(t, s, "█")

	flat := Sparkline(nil, 3)
	assert.Equal(t, "───", flat)
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemePlasma.Name)

	assert.Equal(t, ThemePlasma, GetTheme("missing"))
	SetTheme("ocean")
	assert.Equal(t, "ocean", CurrentTheme.Name)
	nextTheme()
	assert.Equal(t, "plasma", CurrentTheme.Name)
	assert.Len(t, ThemeNames(), len(Themes))
}

func TestRenderFit(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{1e34, 0, 0, 1e-4})
	res := &fit.Result{
		Model:       profile.Parabolic{},
		Geometry:    plasma.TCABR,
		Params:      profile.Params{2.5e19, 1.3},
		Covariance:  cov,
		Frequencies: []float64{18e9, 20e9, 22e9},
		Residuals:   []float64{1e-12, -1e-12, 0},
		Used:        3,
		Iterations:  7,
		Evaluations: 30,
		Reason:      "relative cost reduction below ftol",
	}

	out := RenderFit(res)
	assert.Contains(t, out, "parabolic")
	assert.Contains(t, out, "n0")
	assert.Contains(t, out, "n_max")
	assert.Contains(t, out, "relative cost reduction")
}

func TestRenderRun(t *testing.T) {
	sum := evolution.Summary{Requested: 10, Recorded: 8, Skipped: 1, Missing: 1}
	meta := &storage.RunMetadata{
		ID:        "abc",
		Kind:      storage.KindEvolution,
		Model:     "gaussian_hat",
		Device:    "tcabr",
		Geometry:  plasma.TCABR,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary:   &sum,
	}
	out := RenderRun(meta)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "recorded")
	assert.Contains(t, out, "2024-03-01")

	list := RenderRunList([]storage.RunMetadata{*meta})
	assert.Contains(t, list, "8 points")
	assert.Contains(t, RenderRunList(nil), "no runs")
}

func TestMonitorUpdate(t *testing.T) {
	cancelled := false
	m := NewMonitor("parabolic", 60, 70, func() { cancelled = true })

	var model tea.Model = m
	for _, p := range points(5) {
		model, _ = model.Update(PointMsg(p))
	}
	mon := model.(Monitor)
	require.Len(t, mon.Points(), 5)
	assert.InDelta(t, 0.4, mon.Progress(), 1e-12)
	assert.Contains(t, mon.View(), "recorded")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	assert.False(t, model.(Monitor).showPlot)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, cancelled)
	_ = model
}

func TestMonitorDone(t *testing.T) {
	cancelled := false
	var model tea.Model = NewMonitor("parabolic", 60, 70, func() { cancelled = true })

	model, _ = model.Update(DoneMsg{Summary: evolution.Summary{Requested: 10, Recorded: 10}})
	mon := model.(Monitor)
	assert.Equal(t, 1.0, mon.Progress())
	assert.Contains(t, mon.View(), "done")

	model, _ = model.Update(DoneMsg{Err: errors.New("source closed")})
	assert.Contains(t, model.View(), "source closed")

	_, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, cancelled, "a finished run is not cancelled")
}

func TestMonitorTickStopsWhenDone(t *testing.T) {
	var model tea.Model = NewMonitor("parabolic", 0, 1, context.CancelFunc(func() {}))
	_, cmd := model.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)

	model, _ = model.Update(DoneMsg{})
	_, cmd = model.Update(TickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.False(t, strings.Contains(model.View(), "error"))
}
