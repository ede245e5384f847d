package forward

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gronchi/reflectometry-analysis/internal/integrators"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/roots"
)

// Options configures an Engine. The zero value of any field falls back to
// its default.
type Options struct {
	Quadrature integrators.Options
	Roots      roots.Options
	// EdgeGuard is the fraction of the minor radius beyond which a cutoff
	// counts as the plasma edge.
	EdgeGuard float64
	// Workers bounds the number of samples evaluated concurrently. 1 runs
	// sequentially.
	Workers int
	Logger  *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Quadrature: integrators.DefaultOptions(),
		Roots:      roots.DefaultOptions(),
		EdgeGuard:  integrators.DefaultEdgeGuard,
		Workers:    runtime.NumCPU(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Quadrature == (integrators.Options{}) {
		o.Quadrature = d.Quadrature
	}
	if o.Roots == (roots.Options{}) {
		o.Roots = d.Roots
	}
	if o.EdgeGuard <= 0 || o.EdgeGuard > 1 {
		o.EdgeGuard = d.EdgeGuard
	}
	if o.Workers < 1 {
		o.Workers = d.Workers
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Engine predicts group delays for one profile family on one device. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	model    profile.Model
	geometry plasma.Geometry
	delay    *integrators.DelayIntegrator
	rootOpts roots.Options
	workers  int
	logger   *log.Logger
}

func NewEngine(m profile.Model, g plasma.Geometry, opts Options) (*Engine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil profile model", ErrInvalidInput)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Engine{
		model:    m,
		geometry: g,
		delay:    integrators.NewDelayIntegrator(opts.Quadrature, opts.EdgeGuard),
		rootOpts: opts.Roots,
		workers:  opts.Workers,
		logger:   opts.Logger,
	}, nil
}

func (e *Engine) Model() profile.Model      { return e.model }
func (e *Engine) Geometry() plasma.Geometry { return e.geometry }

// Bind classifies p on this engine's plasma radius.
func (e *Engine) Bind(p profile.Params) profile.Shape {
	return e.model.Bind(p, e.geometry.MinorRadius)
}

// Predict returns one group delay (s) per probe frequency, in input order.
func (e *Engine) Predict(ctx context.Context, freqs []float64, p profile.Params) ([]float64, error) {
	if err := e.validate(freqs, p); err != nil {
		return nil, err
	}

	out := make([]float64, len(freqs))
	shape := e.Bind(p)
	if shape.IsZero() {
		return out, nil
	}

	err := e.each(ctx, len(freqs), func(i int) error {
		tr, err := e.sample(shape, p.N0(), freqs[i])
		if err != nil {
			return &SampleError{Index: i, Frequency: freqs[i], Wrapped: err}
		}
		out[i] = tr.Delay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Trace is Predict with per-sample diagnostics.
func (e *Engine) Trace(ctx context.Context, freqs []float64, p profile.Params) ([]SampleTrace, error) {
	if err := e.validate(freqs, p); err != nil {
		return nil, err
	}

	out := make([]SampleTrace, len(freqs))
	shape := e.Bind(p)
	if shape.IsZero() {
		for i, f := range freqs {
			out[i] = SampleTrace{Frequency: f, Branch: BranchZero}
		}
		return out, nil
	}

	err := e.each(ctx, len(freqs), func(i int) error {
		tr, err := e.sample(shape, p.N0(), freqs[i])
		if err != nil {
			return &SampleError{Index: i, Frequency: freqs[i], Wrapped: err}
		}
		out[i] = tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// each runs fn for every index in [0, n), fanning out across workers.
// Every fn writes only its own slot.
func (e *Engine) each(ctx context.Context, n int, fn func(i int) error) error {
	if e.workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Engine) sample(shape profile.Shape, n0, freq float64) (SampleTrace, error) {
	tr := SampleTrace{Frequency: freq}
	tr.Ratio = plasma.CriticalDensity(freq) / n0

	if tr.Ratio < shape.Peak() {
		x, err := roots.TurningPoint(shape, tr.Ratio, e.rootOpts)
		if err != nil {
			e.logger.Debug("turning point not converged", "freq", freq, "ratio", tr.Ratio, "err", err)
		}
		tr.Branch = BranchReflected
		tr.TurningPoint = math.Abs(x)
		path, err := e.delay.Reflected(tr.TurningPoint, shape, tr.Ratio)
		if err != nil {
			return tr, fmt.Errorf("%w: %v", ErrComputationFault, err)
		}
		tr.Delay = 2 * path / plasma.SpeedOfLight
	} else {
		tr.Branch = BranchTransmitted
		path, err := e.delay.FullDiameter(shape, tr.Ratio)
		if err != nil {
			return tr, fmt.Errorf("%w: %v", ErrComputationFault, err)
		}
		tr.Delay = 2*path/plasma.SpeedOfLight + e.geometry.VacuumDelay()
	}

	if math.IsNaN(tr.Delay) || math.IsInf(tr.Delay, 0) {
		return tr, ErrComputationFault
	}
	return tr, nil
}

func (e *Engine) validate(freqs []float64, p profile.Params) error {
	if len(freqs) == 0 {
		return fmt.Errorf("%w: empty frequency array", ErrInvalidInput)
	}
	for i, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("%w: frequency[%d] = %g", ErrInvalidInput, i, f)
		}
	}
	if err := profile.CheckParams(e.model, p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !p.IsValid() {
		return fmt.Errorf("%w: non-finite parameters %v", ErrInvalidInput, []float64(p))
	}
	return nil
}
