package integrators

import (
	"errors"
	"math"
	"testing"
)

func TestQuadratureSmooth(t *testing.T) {
	q := NewQuadrature(Options{RelTol: 1e-10, MaxSubdivisions: 50})

	tests := []struct {
		name   string
		f      func(float64) float64
		lo, hi float64
		want   float64
	}{
		{"square", func(x float64) float64 { return x * x }, 0, 1, 1.0 / 3},
		{"sine", math.Sin, 0, math.Pi, 2},
		{"exp", math.Exp, -1, 2, math.Exp(2) - math.Exp(-1)},
		{"reversed", func(x float64) float64 { return 1 }, 2, 0, -2},
		{"empty", func(x float64) float64 { return 1 }, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := q.Integrate(tt.f, tt.lo, tt.hi)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !est.Converged {
				t.Error("expected convergence")
			}
			if math.Abs(est.Value-tt.want) > 1e-9 {
				t.Errorf("integral = %.12f, want %.12f", est.Value, tt.want)
			}
		})
	}
}

func TestQuadratureRefinesKink(t *testing.T) {
	q := NewQuadrature(Options{RelTol: 1e-8, MaxSubdivisions: 200})

	est, err := q.Integrate(func(x float64) float64 { return math.Abs(x - 0.3) }, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.5*0.3*0.3 + 0.5*0.7*0.7
	if math.Abs(est.Value-want) > 1e-7 {
		t.Errorf("integral = %.10f, want %.10f", est.Value, want)
	}
	if est.Panels < 2 {
		t.Errorf("expected refinement, got %d panels", est.Panels)
	}
}

func TestQuadratureSubdivisionLimit(t *testing.T) {
	q := NewQuadrature(Options{RelTol: 1e-14, MaxSubdivisions: 3})

	est, err := q.Integrate(func(x float64) float64 { return math.Sqrt(x) }, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if est.Converged {
		t.Error("expected the subdivision limit to stop refinement")
	}
	if est.Panels != 3 {
		t.Errorf("panels = %d, want 3", est.Panels)
	}
	if math.Abs(est.Value-2.0/3) > 1e-3 {
		t.Errorf("best estimate %g too far from 2/3", est.Value)
	}
}

func TestQuadratureNonFinite(t *testing.T) {
	q := NewQuadrature(DefaultOptions())

	_, err := q.Integrate(func(x float64) float64 { return math.NaN() }, 0, 1)
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}

	_, err = q.Integrate(func(x float64) float64 { return math.Inf(1) }, 0, 1)
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite for Inf, got %v", err)
	}
}
