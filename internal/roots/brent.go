package roots

import (
	"errors"
	"math"
)

var (
	// ErrNoBracket indicates f(lo) and f(hi) do not have opposite signs.
	ErrNoBracket = errors.New("roots: interval does not bracket a root")

	// ErrMaxIterations indicates the iteration budget ran out before the
	// bracket shrank below tolerance. The best estimate is still returned.
	ErrMaxIterations = errors.New("roots: iteration budget exhausted")
)

// Options controls the bracketed solver.
type Options struct {
	// AbsTol is the absolute width (in x units) at which the bracket is
	// considered converged.
	AbsTol float64 `yaml:"abs_tol"`
	// RelTol is added as RelTol·|x| to AbsTol.
	RelTol float64 `yaml:"rel_tol"`
	// MaxIterations bounds the number of function evaluations after the
	// two bracket ends.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultOptions resolves the turning point close to machine precision.
// The delay integral responds to a cutoff error δ like sqrt(δ), so a
// loose root shows up as noise in finite-difference Jacobians.
func DefaultOptions() Options {
	return Options{
		AbsTol:        1e-14,
		RelTol:        4 * eps,
		MaxIterations: 100,
	}
}

const eps = 2.220446049250313e-16

// OppositeSigns reports whether fa and fb strictly straddle zero.
func OppositeSigns(fa, fb float64) bool {
	return (fa < 0 && fb > 0) || (fa > 0 && fb < 0)
}

// Brent finds a root of f in [lo, hi] with Brent's method (inverse
// quadratic interpolation safeguarded by bisection).
func Brent(f func(float64) float64, lo, hi float64, opts Options) (float64, error) {
	a, b := lo, hi
	fa, fb := f(a), f(b)

	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if !OppositeSigns(fa, fb) {
		return b, ErrNoBracket
	}

	c, fc := a, fa
	d := b - a
	e := d

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if !OppositeSigns(fb, fc) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*eps*math.Abs(b) + 0.5*(opts.AbsTol+opts.RelTol*math.Abs(b))
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			// Interpolate: secant when only two points are distinct,
			// inverse quadratic otherwise.
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * m * s
				q = 1 - s
			} else {
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = d
			}
		} else {
			d = m
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if m > 0 {
			b += tol
		} else {
			b -= tol
		}
		fb = f(b)
	}

	return b, ErrMaxIterations
}
