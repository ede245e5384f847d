package integrators

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// ErrNonFinite indicates the integrand produced NaN or Inf.
var ErrNonFinite = errors.New("integrators: non-finite integral")

// Gauss-Legendre orders of the embedded panel pair. The low order result
// only serves as the error estimate for the high order one.
const (
	lowOrder  = 8
	highOrder = 16
)

// Options controls adaptive refinement.
type Options struct {
	// RelTol is the target relative error of the whole integral.
	RelTol float64 `yaml:"rel_tol"`
	// AbsTol is the target absolute error; the looser of the two wins.
	AbsTol float64 `yaml:"abs_tol"`
	// MaxSubdivisions bounds the number of panels.
	MaxSubdivisions int `yaml:"max_subdivisions"`
}

// DefaultOptions matches the noise level of swept reflectometry: three
// significant digits of group delay.
func DefaultOptions() Options {
	return Options{
		RelTol:          1e-3,
		AbsTol:          0,
		MaxSubdivisions: 64,
	}
}

// Estimate is the outcome of an adaptive integration.
type Estimate struct {
	Value  float64
	AbsErr float64
	Panels int
	// Converged is false when MaxSubdivisions was reached before the
	// tolerance; Value is then the best available estimate.
	Converged bool
}

type panel struct {
	lo, hi float64
	value  float64
	err    float64
}

// Quadrature is a globally adaptive Gauss-Legendre integrator. It bisects
// the panel with the largest error estimate until the summed estimate
// meets the tolerance. Node tables are computed once, so a Quadrature is
// safe for concurrent use.
type Quadrature struct {
	opts Options

	lowX, lowW   []float64
	highX, highW []float64
}

func NewQuadrature(opts Options) *Quadrature {
	if opts.MaxSubdivisions < 1 {
		opts.MaxSubdivisions = 1
	}
	q := &Quadrature{
		opts:  opts,
		lowX:  make([]float64, lowOrder),
		lowW:  make([]float64, lowOrder),
		highX: make([]float64, highOrder),
		highW: make([]float64, highOrder),
	}
	quad.Legendre{}.FixedLocations(q.lowX, q.lowW, -1, 1)
	quad.Legendre{}.FixedLocations(q.highX, q.highW, -1, 1)
	return q
}

func (q *Quadrature) Options() Options { return q.opts }

// Integrate computes ∫ f over [lo, hi]. Endpoints are never evaluated.
func (q *Quadrature) Integrate(f func(float64) float64, lo, hi float64) (Estimate, error) {
	if lo == hi {
		return Estimate{Converged: true}, nil
	}

	panels := make([]panel, 1, q.opts.MaxSubdivisions)
	panels[0] = q.panel(f, lo, hi)

	for {
		total, errSum := 0.0, 0.0
		worst := 0
		for i, p := range panels {
			total += p.value
			errSum += p.err
			if p.err > panels[worst].err {
				worst = i
			}
		}

		if math.IsNaN(total) || math.IsInf(total, 0) {
			return Estimate{Value: total, Panels: len(panels)}, ErrNonFinite
		}

		est := Estimate{Value: total, AbsErr: errSum, Panels: len(panels)}
		if errSum <= math.Max(q.opts.AbsTol, q.opts.RelTol*math.Abs(total)) {
			est.Converged = true
			return est, nil
		}
		if len(panels) >= q.opts.MaxSubdivisions {
			return est, nil
		}

		w := panels[worst]
		mid := 0.5 * (w.lo + w.hi)
		panels[worst] = q.panel(f, w.lo, mid)
		panels = append(panels, q.panel(f, mid, w.hi))
	}
}

func (q *Quadrature) panel(f func(float64) float64, lo, hi float64) panel {
	half := 0.5 * (hi - lo)
	centre := 0.5 * (hi + lo)

	low := 0.0
	for i, x := range q.lowX {
		low += q.lowW[i] * f(centre+half*x)
	}
	high := 0.0
	for i, x := range q.highX {
		high += q.highW[i] * f(centre+half*x)
	}
	low *= half
	high *= half

	return panel{lo: lo, hi: hi, value: high, err: math.Abs(high - low)}
}
