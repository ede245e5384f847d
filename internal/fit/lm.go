package fit

import (
	"context"
	"errors"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// maxCond is the largest condition number of the column-normalized normal
// matrix for which a covariance is reported.
const maxCond = 1e14

// predictor evaluates the model at p, one value per measured sample.
type predictor func(ctx context.Context, p profile.Params) ([]float64, error)

// lmSolver minimizes ½·Σ(y - f(p))² with Levenberg-Marquardt. Parameters
// are scaled by the running maximum of the Jacobian column norms, which
// makes the iteration invariant to the wildly different units of n0 and
// the shape parameters.
type lmSolver struct {
	opts   Options
	logger *log.Logger
	eval   predictor
	y      []float64

	evals int
}

type lmState struct {
	p     profile.Params
	pred  []float64
	resid []float64
	cost  float64
}

type lmOutcome struct {
	lmState
	iterations int
	reason     string
}

func (s *lmSolver) evaluate(ctx context.Context, p profile.Params) (lmState, error) {
	pred, err := s.eval(ctx, p)
	s.evals++
	if err != nil {
		return lmState{}, err
	}
	resid := make([]float64, len(s.y))
	floats.SubTo(resid, s.y, pred)
	return lmState{p: p, pred: pred, resid: resid, cost: 0.5 * floats.Dot(resid, resid)}, nil
}

// jacobian returns ∂f/∂p by forward differences around st.
func (s *lmSolver) jacobian(ctx context.Context, st lmState) (*mat.Dense, error) {
	n, m := len(s.y), len(st.p)
	jac := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		h := s.opts.DiffStep * math.Abs(st.p[j])
		if h == 0 {
			h = s.opts.DiffStep
		}
		q := st.p.Clone()
		q[j] += h
		h = q[j] - st.p[j]

		f, err := s.eval(ctx, q)
		s.evals++
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			jac.Set(i, j, (f[i]-st.pred[i])/h)
		}
	}
	return jac, nil
}

func (s *lmSolver) solve(ctx context.Context, p0 profile.Params) (lmOutcome, error) {
	m := len(p0)

	cur, err := s.evaluate(ctx, p0.Clone())
	if err != nil {
		return lmOutcome{}, err
	}

	scale := make([]float64, m)
	lambda, nu := 0.0, 2.0

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return lmOutcome{}, err
		}
		if iter > s.opts.MaxIterations {
			return lmOutcome{lmState: cur, iterations: iter - 1}, s.fail(cur, iter-1, "iteration budget exhausted")
		}
		if cur.cost == 0 {
			return lmOutcome{lmState: cur, iterations: iter - 1, reason: "exact fit"}, nil
		}

		jac, err := s.jacobian(ctx, cur)
		if err != nil {
			return lmOutcome{}, err
		}
		js := scaleColumns(jac, scale)

		var a mat.SymDense
		a.SymOuterK(1, js.T())
		var g mat.VecDense
		g.MulVec(js.T(), mat.NewVecDense(len(cur.resid), cur.resid))

		rnorm := floats.Norm(cur.resid, 2)
		if gmax := mat.Norm(&g, math.Inf(1)); gmax <= s.opts.GTol*rnorm {
			return lmOutcome{lmState: cur, iterations: iter, reason: "gradient orthogonal to residuals"}, nil
		}

		if lambda == 0 {
			lambda = s.opts.InitialDamping * maxDiag(&a)
		}

		scaledP := make([]float64, m)
		for j := range scaledP {
			scaledP[j] = scale[j] * cur.p[j]
		}
		pnorm := floats.Norm(scaledP, 2)

		for {
			if lambda > s.opts.MaxDamping {
				return lmOutcome{lmState: cur, iterations: iter}, s.fail(cur, iter, "damping exceeded limit without an improving step")
			}

			ds, ok := dampedStep(&a, &g, lambda)
			if !ok {
				lambda *= nu
				nu *= 2
				continue
			}
			step := mat.Norm(ds, 2)

			trial := cur.p.Clone()
			for j := range trial {
				trial[j] += ds.AtVec(j) / scale[j]
			}

			// ½·dsᵀ(λ·ds + g)
			var lg mat.VecDense
			lg.AddScaledVec(&g, lambda, ds)
			predicted := 0.5 * mat.Dot(ds, &lg)

			next, err := s.evaluate(ctx, trial)
			if err != nil {
				if ctx.Err() != nil {
					return lmOutcome{}, ctx.Err()
				}
				s.logger.Debug("trial step failed", "iter", iter, "lambda", lambda, "err", err)
				next.cost = math.Inf(1)
			}

			actual := cur.cost - next.cost
			rho := -1.0
			if predicted > 0 {
				rho = actual / predicted
			}

			if rho > 0 {
				prev := cur.cost
				cur = next
				lambda *= math.Max(1.0/3, 1-math.Pow(2*rho-1, 3))
				nu = 2

				s.logger.Debug("step accepted", "iter", iter, "cost", cur.cost, "lambda", lambda, "rho", rho)

				if actual <= s.opts.FTol*prev && predicted <= s.opts.FTol*prev {
					return lmOutcome{lmState: cur, iterations: iter, reason: "relative cost reduction below ftol"}, nil
				}
				if step <= s.opts.XTol*(pnorm+s.opts.XTol) {
					return lmOutcome{lmState: cur, iterations: iter, reason: "step below xtol"}, nil
				}
				break
			}

			if step <= s.opts.XTol*(pnorm+s.opts.XTol) {
				return lmOutcome{lmState: cur, iterations: iter, reason: "step below xtol"}, nil
			}
			lambda *= nu
			nu *= 2
		}
	}
}

func (s *lmSolver) fail(st lmState, iter int, reason string) error {
	return &ConvergenceError{Reason: reason, Iterations: iter, Cost: st.cost, Params: st.p.Clone()}
}

// scaleColumns updates scale with the column norms of jac and returns jac
// with every column divided by its scale.
func scaleColumns(jac *mat.Dense, scale []float64) *mat.Dense {
	n, m := jac.Dims()
	js := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		norm := mat.Norm(jac.ColView(j), 2)
		if norm > scale[j] {
			scale[j] = norm
		}
		if scale[j] == 0 {
			scale[j] = 1
		}
		for i := 0; i < n; i++ {
			js.Set(i, j, jac.At(i, j)/scale[j])
		}
	}
	return js
}

func maxDiag(a *mat.SymDense) float64 {
	largest := 0.0
	for i := 0; i < a.SymmetricDim(); i++ {
		largest = math.Max(largest, a.At(i, i))
	}
	if largest == 0 {
		return 1
	}
	return largest
}

// dampedStep solves (A + λI)·ds = g.
func dampedStep(a *mat.SymDense, g *mat.VecDense, lambda float64) (*mat.VecDense, bool) {
	m := a.SymmetricDim()
	damped := mat.NewSymDense(m, nil)
	damped.CopySym(a)
	for i := 0; i < m; i++ {
		damped.SetSym(i, i, a.At(i, i)+lambda)
	}

	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return nil, false
	}
	ds := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(ds, g); err != nil {
		return nil, false
	}
	for i := 0; i < m; i++ {
		if v := ds.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return ds, true
}

var errSingular = errors.New("fit: singular normal matrix")

// covariance returns (JᵀJ)⁻¹·σ² computed on the column-normalized
// Jacobian.
func covariance(jac *mat.Dense, sigma2 float64) (*mat.SymDense, error) {
	n, m := jac.Dims()
	norms := make([]float64, m)
	js := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		norms[j] = mat.Norm(jac.ColView(j), 2)
		if norms[j] == 0 || math.IsNaN(norms[j]) || math.IsInf(norms[j], 0) {
			return nil, errSingular
		}
		for i := 0; i < n; i++ {
			js.Set(i, j, jac.At(i, j)/norms[j])
		}
	}

	var a mat.SymDense
	a.SymOuterK(1, js.T())

	var chol mat.Cholesky
	if !chol.Factorize(&a) || chol.Cond() > maxCond {
		return nil, errSingular
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, errSingular
	}

	cov := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			cov.SetSym(i, j, sigma2*inv.At(i, j)/(norms[i]*norms[j]))
		}
	}
	return cov, nil
}
