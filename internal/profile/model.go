package profile

import (
	"errors"
	"fmt"
	"math"
)

// ErrParamCount indicates a parameter vector of the wrong length.
var ErrParamCount = errors.New("profile: wrong number of parameters")

// Params is a model parameter vector. Index 0 is always the central
// density n0 (m⁻³); the remaining entries are model specific shape
// parameters.
type Params []float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	copy(c, p)
	return c
}

// N0 returns the central density.
func (p Params) N0() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}

func (p Params) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Degeneracy classifies a parameter vector into the formula actually used.
type Degeneracy int

const (
	// Regular uses the full formula of the family.
	Regular Degeneracy = iota
	// ZeroProfile is the all-zero profile (non-positive exponent). The
	// forward model is identically zero.
	ZeroProfile
	// ParabolicOnly is a Gaussian hat with zero width, evaluated as the
	// pure parabolic profile.
	ParabolicOnly
	// FirstGaussianDropped is a double Gaussian with zero first width.
	FirstGaussianDropped
	// SecondGaussianDropped is a double Gaussian with zero second width.
	SecondGaussianDropped
)

func (d Degeneracy) String() string {
	switch d {
	case Regular:
		return "regular"
	case ZeroProfile:
		return "zero"
	case ParabolicOnly:
		return "parabolic-only"
	case FirstGaussianDropped:
		return "first-gaussian-dropped"
	case SecondGaussianDropped:
		return "second-gaussian-dropped"
	default:
		return fmt.Sprintf("degeneracy(%d)", int(d))
	}
}

// Model is a family of normalized density profiles.
type Model interface {
	Name() string
	// ParamNames lists the parameter names in vector order, n0 first.
	ParamNames() []string
	// DefaultShape returns starting values for every parameter except n0.
	DefaultShape(radius float64) []float64
	// Bind classifies p and returns the profile it describes on a plasma
	// of the given radius. Bind panics if len(p) != len(ParamNames()).
	Bind(p Params, radius float64) Shape
}

// Shape is a profile bound to one parameter vector.
type Shape struct {
	Degeneracy Degeneracy
	Radius     float64

	peak    float64
	eval    func(x float64) float64
	inverse func(ratio float64) float64
}

// At returns the density fraction at radial position x. The profile is
// exactly zero for |x| >= Radius.
func (s Shape) At(x float64) float64 {
	if math.Abs(x) >= s.Radius || s.eval == nil {
		return 0
	}
	return s.eval(x)
}

// Peak is the largest attainable density fraction, reached at x = 0.
func (s Shape) Peak() float64 { return s.peak }

// IsZero reports whether the shape is the degenerate all-zero profile.
func (s Shape) IsZero() bool { return s.Degeneracy == ZeroProfile }

// Invert returns the closed-form position where the profile equals ratio,
// when the family has one.
func (s Shape) Invert(ratio float64) (float64, bool) {
	if s.inverse == nil {
		return 0, false
	}
	return s.inverse(ratio), true
}

func zeroShape(radius float64) Shape {
	return Shape{
		Degeneracy: ZeroProfile,
		Radius:     radius,
		eval:       func(float64) float64 { return 0 },
	}
}

func checkLen(m Model, p Params) {
	if len(p) != len(m.ParamNames()) {
		panic(fmt.Errorf("%w: %s wants %d, got %d", ErrParamCount, m.Name(), len(m.ParamNames()), len(p)))
	}
}

// CheckParams reports ErrParamCount instead of panicking.
func CheckParams(m Model, p Params) error {
	if len(p) != len(m.ParamNames()) {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrParamCount, m.Name(), len(m.ParamNames()), len(p))
	}
	return nil
}
