package fit

import (
	"math"
	"testing"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

func TestCrossingIndex(t *testing.T) {
	tests := []struct {
		name   string
		delays []float64
		want   int
	}{
		{"none", []float64{1e-9, 2e-9, 2.2e-9}, -1},
		{"first", []float64{3e-9, 1e-9}, 0},
		{"middle", []float64{1e-9, 1.5e-9, 2.3e-9, 2.5e-9}, 2},
		{"empty", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CrossingIndex(tt.delays, 2.2e-9); got != tt.want {
				t.Errorf("CrossingIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGuess(t *testing.T) {
	freqs := []float64{20e9, 25e9, 30e9, 35e9}
	opts := DefaultGuessOptions()

	tests := []struct {
		name    string
		model   profile.Model
		delays  []float64
		refFreq float64
		idx     int
	}{
		{"crossing", profile.GaussianHat{}, []float64{1e-9, 1.5e-9, 2.5e-9, 3e-9}, 30e9, 2},
		{"no crossing", profile.Parabolic{}, []float64{1e-9, 1.1e-9, 1.2e-9, 1.3e-9}, 40.5e9, -1},
		{"crossing at start", profile.DoubleGaussian{}, []float64{3e-9, 1e-9, 1e-9, 1e-9}, 40.5e9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, idx := Guess(tt.model, plasma.TCABR, freqs, tt.delays, opts)
			if idx != tt.idx {
				t.Errorf("index = %d, want %d", idx, tt.idx)
			}
			want := 0.87 * plasma.CriticalDensity(tt.refFreq)
			if math.Abs(p.N0()-want) > 1e-9*want {
				t.Errorf("n0 = %g, want %g", p.N0(), want)
			}
			if len(p) != len(tt.model.ParamNames()) {
				t.Errorf("len = %d, want %d", len(p), len(tt.model.ParamNames()))
			}
		})
	}
}

func TestGuessHatShape(t *testing.T) {
	p, _ := Guess(profile.GaussianHat{}, plasma.TCABR, []float64{20e9}, []float64{1e-9}, DefaultGuessOptions())
	want := []float64{1.1, 0.45, 0.18 / 4.8}
	for i, w := range want {
		if math.Abs(p[i+1]-w) > 1e-12 {
			t.Errorf("p[%d] = %g, want %g", i+1, p[i+1], w)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"no iterations", func(o *Options) { o.MaxIterations = 0 }},
		{"negative ftol", func(o *Options) { o.FTol = -1 }},
		{"diff step one", func(o *Options) { o.DiffStep = 1 }},
		{"zero damping", func(o *Options) { o.InitialDamping = 0 }},
		{"damping limit", func(o *Options) { o.MaxDamping = 1e-4 }},
		{"guess threshold", func(o *Options) { o.Guess.CrossThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			if err := o.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
