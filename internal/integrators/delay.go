package integrators

import (
	"errors"
	"math"

	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/roots"
)

// DefaultEdgeGuard is the fraction of the plasma radius beyond which a
// reflecting layer is indistinguishable from the edge.
const DefaultEdgeGuard = 0.995

// DelayIntegrator evaluates the optical path integral
//
//	∫ dx / sqrt(1 - P(x)/r)
//
// whose integrand diverges where the profile P meets the density ratio r.
// The substitution x = lo + u² turns the inverse square root singularity
// at the lower bound into a smooth integrand, so plain Gauss-Legendre
// panels converge.
type DelayIntegrator struct {
	quad      *Quadrature
	edgeGuard float64
}

func NewDelayIntegrator(opts Options, edgeGuard float64) *DelayIntegrator {
	if edgeGuard <= 0 || edgeGuard > 1 {
		edgeGuard = DefaultEdgeGuard
	}
	return &DelayIntegrator{quad: NewQuadrature(opts), edgeGuard: edgeGuard}
}

func (d *DelayIntegrator) EdgeGuard() float64 { return d.edgeGuard }

// Delay integrates over [xCut, a] when xCut > 0, otherwise over the full
// diameter [-a, a]. A cutoff within the edge guard yields zero. The result
// is a length; callers convert it to time.
func (d *DelayIntegrator) Delay(xCut float64, s profile.Shape, r float64) (float64, error) {
	if xCut > 0 {
		return d.Reflected(xCut, s, r)
	}
	return d.FullDiameter(s, r)
}

// Reflected integrates from the reflecting layer xCut out to the edge.
func (d *DelayIntegrator) Reflected(xCut float64, s profile.Shape, r float64) (float64, error) {
	if xCut > d.edgeGuard*s.Radius {
		return 0, nil
	}
	est, err := d.Path(xCut, s, r)
	return est.Value, err
}

// FullDiameter integrates across the whole plasma. Profiles are even, so
// this is twice the path from the axis, and x = 0 stays an endpoint.
func (d *DelayIntegrator) FullDiameter(s profile.Shape, r float64) (float64, error) {
	est, err := d.Path(0, s, r)
	return 2 * est.Value, err
}

// Path integrates from lo to the plasma edge. When lo lies on the
// evanescent side (1 - P(lo)/r < 0) the lower bound is first moved out to
// the crossing, so the singularity always sits at the endpoint removed by
// the substitution. A profile above r all the way to the edge gives zero.
func (d *DelayIntegrator) Path(lo float64, s profile.Shape, r float64) (Estimate, error) {
	if s.Radius-lo <= 0 {
		return Estimate{Converged: true}, nil
	}
	if 1-s.At(lo)/r < 0 {
		g := func(x float64) float64 { return s.At(x) - r }
		if g(s.Radius) >= 0 {
			return Estimate{Converged: true}, nil
		}
		x, err := roots.Brent(g, lo, s.Radius, roots.DefaultOptions())
		if err != nil && !errors.Is(err, roots.ErrMaxIterations) {
			return Estimate{}, err
		}
		lo = x
	}
	span := s.Radius - lo
	if span <= 0 {
		return Estimate{Converged: true}, nil
	}

	f := func(u float64) float64 {
		x := lo + u*u
		arg := 1 - s.At(x)/r
		if arg <= 0 {
			return 0
		}
		return 2 * u / math.Sqrt(arg)
	}
	return d.quad.Integrate(f, 0, math.Sqrt(span))
}
