package integrators

import (
	"math"
	"testing"

	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/roots"
)

const radius = 0.18

func linearParabola() profile.Shape {
	return profile.Parabolic{}.Bind(profile.Params{1e19, 1.0}, radius)
}

// For P = 1 - (x/a)^2 the reflected path has the closed form
// a·sqrt(r)·acosh(a/xc) with xc = a·sqrt(1 - r).
func reflectedClosedForm(r float64) float64 {
	xc := radius * math.Sqrt(1-r)
	return radius * math.Sqrt(r) * math.Acosh(radius/xc)
}

// and the transmitted path across the diameter is
// 2·a·sqrt(r)·asinh(1/sqrt(r - 1)).
func diameterClosedForm(r float64) float64 {
	return 2 * radius * math.Sqrt(r) * math.Asinh(1/math.Sqrt(r-1))
}

func TestReflectedSingularIntegral(t *testing.T) {
	d := NewDelayIntegrator(Options{RelTol: 1e-9, MaxSubdivisions: 200}, DefaultEdgeGuard)
	s := linearParabola()

	for _, r := range []float64{0.1, 0.5, 0.9} {
		xc := radius * math.Sqrt(1-r)
		got, err := d.Delay(xc, s, r)
		if err != nil {
			t.Fatalf("r=%g: %v", r, err)
		}
		want := reflectedClosedForm(r)
		if math.Abs(got-want)/want > 1e-7 {
			t.Errorf("r=%g: delay path = %.10f, want %.10f", r, got, want)
		}
	}
}

func TestReflectedDefaultTolerance(t *testing.T) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := linearParabola()

	xc := radius * math.Sqrt(0.5)
	got, err := d.Delay(xc, s, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	want := reflectedClosedForm(0.5)
	if math.Abs(got-want)/want > 2e-3 {
		t.Errorf("delay path = %.6f, want %.6f", got, want)
	}
}

func TestFullDiameter(t *testing.T) {
	d := NewDelayIntegrator(Options{RelTol: 1e-9, MaxSubdivisions: 200}, DefaultEdgeGuard)
	s := linearParabola()

	for _, r := range []float64{1.5, 2, 10} {
		got, err := d.Delay(0, s, r)
		if err != nil {
			t.Fatalf("r=%g: %v", r, err)
		}
		want := diameterClosedForm(r)
		if math.Abs(got-want)/want > 1e-7 {
			t.Errorf("r=%g: diameter path = %.10f, want %.10f", r, got, want)
		}
		if got <= 2*radius {
			t.Errorf("r=%g: plasma must lengthen the optical path, got %g", r, got)
		}
	}
}

func TestEdgeGuard(t *testing.T) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := linearParabola()

	got, err := d.Delay(0.996*radius, s, 0.005)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("expected zero inside the edge guard, got %g", got)
	}
}

func hatShape() profile.Shape {
	return profile.GaussianHat{}.Bind(profile.Params{1e19, 1.1, 0.45, radius / 4.8}, radius)
}

func TestDelayMonotoneInCutoff(t *testing.T) {
	d := NewDelayIntegrator(Options{RelTol: 1e-10, MaxSubdivisions: 200}, DefaultEdgeGuard)
	s := hatShape()
	r := 0.6

	xt, err := roots.TurningPoint(s, r, roots.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	prev := math.Inf(1)
	for xc := xt; xc < radius; xc += 0.005 {
		got, err := d.Delay(xc, s, r)
		if err != nil {
			t.Fatalf("xc=%g: %v", xc, err)
		}
		if got > prev*(1+1e-9) {
			t.Errorf("delay increased at xc=%g: %g > %g", xc, got, prev)
		}
		prev = got
	}
}

func TestCutoffInsideDensePlasma(t *testing.T) {
	d := NewDelayIntegrator(Options{RelTol: 1e-10, MaxSubdivisions: 200}, DefaultEdgeGuard)
	s := hatShape()
	r := 0.6

	xt, err := roots.TurningPoint(s, r, roots.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	want, err := d.Delay(xt, s, r)
	if err != nil {
		t.Fatal(err)
	}

	for _, xc := range []float64{0.01, 0.03, 0.05, 0.5 * xt, 0.9 * xt} {
		if s.At(xc) <= r {
			t.Fatalf("xc=%g is not below the turning point %g", xc, xt)
		}
		got, err := d.Delay(xc, s, r)
		if err != nil {
			t.Fatalf("xc=%g: %v", xc, err)
		}
		if math.Abs(got-want) > 1e-6*want {
			t.Errorf("xc=%g: delay path = %.10f, want turning point value %.10f", xc, got, want)
		}
	}
}

func TestZeroProfilePathIsGeometric(t *testing.T) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := profile.Parabolic{}.Bind(profile.Params{1e19, -1}, radius)

	got, err := d.Delay(0, s, 3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-2*radius) > 1e-12 {
		t.Errorf("empty plasma diameter = %g, want %g", got, 2*radius)
	}
}

func TestNonFiniteRatio(t *testing.T) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := linearParabola()

	if _, err := d.Delay(0, s, math.NaN()); err == nil {
		t.Error("expected a non-finite error for NaN ratio")
	}
}

func BenchmarkReflected(b *testing.B) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := hatShape()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.Delay(0.1, s, 0.5)
	}
}

func BenchmarkFullDiameter(b *testing.B) {
	d := NewDelayIntegrator(DefaultOptions(), DefaultEdgeGuard)
	s := hatShape()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.Delay(0, s, 1.5)
	}
}
