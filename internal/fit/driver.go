package fit

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// Driver fits one profile family to measured group delays.
type Driver struct {
	engine *forward.Engine
	opts   Options
	logger *log.Logger
}

func NewDriver(e *forward.Engine, opts Options) (*Driver, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil forward engine", ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{engine: e, opts: opts, logger: logger}, nil
}

func (d *Driver) Engine() *forward.Engine { return d.engine }
func (d *Driver) Options() Options        { return d.opts }

// Guess applies the starting point heuristic to a measurement.
func (d *Driver) Guess(freqs, delays []float64) (profile.Params, int) {
	return Guess(d.engine.Model(), d.engine.Geometry(), freqs, delays, d.opts.Guess)
}

// FitAuto fits starting from the heuristic guess.
func (d *Driver) FitAuto(ctx context.Context, freqs, delays []float64) (*Result, error) {
	if err := d.validate(freqs, delays, nil); err != nil {
		return nil, err
	}
	guess, _ := d.Guess(freqs, delays)
	return d.Fit(ctx, freqs, delays, guess)
}

// Fit runs Levenberg-Marquardt from guess. The returned error wraps
// ErrNotConverged when no trustworthy optimum was found and
// ErrInvalidInput when the inputs were rejected. Inputs are not modified.
func (d *Driver) Fit(ctx context.Context, freqs, delays []float64, guess profile.Params) (*Result, error) {
	if err := d.validate(freqs, delays, guess); err != nil {
		return nil, err
	}

	used := d.usable(delays)
	m := len(guess)
	if used <= m {
		return nil, fmt.Errorf("%w: %d samples before the crossing, need more than %d", ErrInvalidInput, used, m)
	}

	f := append([]float64(nil), freqs[:used]...)
	y := append([]float64(nil), delays[:used]...)

	solver := &lmSolver{
		opts:   d.opts,
		logger: d.logger,
		y:      y,
		eval: func(ctx context.Context, p profile.Params) ([]float64, error) {
			return d.engine.Predict(ctx, f, p)
		},
	}

	d.logger.Debug("fit started", "model", d.engine.Model().Name(), "samples", used, "guess", []float64(guess))

	out, err := solver.solve(ctx, guess)
	if err != nil {
		return nil, err
	}

	if reason := d.outsideDomain(out.p); reason != "" {
		return nil, solver.fail(out.lmState, out.iterations, reason)
	}

	jac, err := solver.jacobian(ctx, out.lmState)
	if err != nil {
		return nil, err
	}
	sigma2 := 2 * out.cost / float64(used-m)
	cov, err := covariance(jac, sigma2)
	if err != nil {
		return nil, solver.fail(out.lmState, out.iterations, "covariance undefined: "+err.Error())
	}

	d.logger.Debug("fit converged", "reason", out.reason, "iterations", out.iterations, "evaluations", solver.evals, "cost", out.cost)

	return &Result{
		Model:       d.engine.Model(),
		Geometry:    d.engine.Geometry(),
		Params:      out.p.Clone(),
		Covariance:  cov,
		Frequencies: f,
		Measured:    y,
		Predicted:   out.pred,
		Residuals:   out.resid,
		Iterations:  out.iterations,
		Evaluations: solver.evals,
		Cost:        out.cost,
		Used:        used,
		Reason:      out.reason,
	}, nil
}

// usable is the number of leading samples taking part in a fit.
func (d *Driver) usable(delays []float64) int {
	if d.opts.TruncateAtCrossing {
		if idx := CrossingIndex(delays, d.opts.Guess.CrossThreshold); idx > 0 {
			return idx
		}
	}
	return len(delays)
}

func (d *Driver) outsideDomain(p profile.Params) string {
	if !p.IsValid() {
		return "optimum is not finite"
	}
	if p.N0() <= 0 {
		return fmt.Sprintf("optimum has non-positive central density %g", p.N0())
	}
	if d.engine.Bind(p).IsZero() {
		return "optimum is the degenerate zero profile"
	}
	return ""
}

// validate checks the measurement and, when non-nil, the guess.
func (d *Driver) validate(freqs, delays []float64, guess profile.Params) error {
	if len(freqs) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	if len(freqs) != len(delays) {
		return fmt.Errorf("%w: %d frequencies but %d delays", ErrInvalidInput, len(freqs), len(delays))
	}
	for i := range freqs {
		if math.IsNaN(freqs[i]) || math.IsInf(freqs[i], 0) || freqs[i] <= 0 {
			return fmt.Errorf("%w: frequency[%d] = %g", ErrInvalidInput, i, freqs[i])
		}
		if math.IsNaN(delays[i]) || math.IsInf(delays[i], 0) {
			return fmt.Errorf("%w: delay[%d] = %g", ErrInvalidInput, i, delays[i])
		}
	}

	m := len(d.engine.Model().ParamNames())
	if len(freqs) <= m {
		return fmt.Errorf("%w: %d samples for %d parameters", ErrInvalidInput, len(freqs), m)
	}
	if guess == nil {
		return nil
	}
	if err := profile.CheckParams(d.engine.Model(), guess); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !guess.IsValid() {
		return fmt.Errorf("%w: non-finite initial guess", ErrInvalidInput)
	}
	return nil
}
