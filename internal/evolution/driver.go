package evolution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/gronchi/reflectometry-analysis/internal/fit"
)

// Fitter is satisfied by *fit.Driver.
type Fitter interface {
	FitAuto(ctx context.Context, freqs, delays []float64) (*fit.Result, error)
}

// Summary counts what happened to every requested time.
type Summary struct {
	Requested int
	Recorded  int
	// Skipped frames did not converge or were rejected as invalid.
	Skipped int
	// Missing frames were not found in the source.
	Missing int
}

// Stats summarizes the recorded peak densities.
type Stats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Driver runs one fit per time step.
type Driver struct {
	fitter Fitter
	source Source
	sink   Sink
	logger *log.Logger
}

func NewDriver(f Fitter, src Source, sink Sink, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{fitter: f, source: src, sink: sink, logger: logger}
}

// Steps returns t0, t0+dt, ... strictly below t1.
func Steps(t0, t1, dt float64) ([]float64, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("evolution: time step must be positive, got %g", dt)
	}
	if math.IsNaN(t0) || math.IsNaN(t1) || t1 < t0 {
		return nil, fmt.Errorf("evolution: invalid window [%g, %g)", t0, t1)
	}
	n := int(math.Ceil((t1 - t0) / dt))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if t := t0 + float64(i)*dt; t < t1 {
			out = append(out, t)
		}
	}
	return out, nil
}

// Run fits every step in [t0, t1). Frames that do not converge or are
// missing are logged and skipped; sink or context errors stop the run.
func (d *Driver) Run(ctx context.Context, t0, t1, dt float64) (Summary, error) {
	times, err := Steps(t0, t1, dt)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Requested: len(times)}
	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		frame, err := d.source.Frame(ctx, t)
		if err != nil {
			if errors.Is(err, ErrNoFrame) {
				d.logger.Warn("no data", "time", t)
				sum.Missing++
				continue
			}
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			return sum, fmt.Errorf("frame at %.3f: %w", t, err)
		}

		res, err := d.fitter.FitAuto(ctx, frame.Frequencies, frame.Delays)
		if err != nil {
			if errors.Is(err, fit.ErrNotConverged) || errors.Is(err, fit.ErrInvalidInput) {
				d.logger.Warn("parameters not found", "time", t, "err", err)
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("fit at %.3f: %w", t, err)
		}

		p := Point{
			Time:        t,
			PeakDensity: res.PeakDensity(),
			Uncertainty: res.PeakUncertainty(),
			Params:      res.Params.Clone(),
			ResidualStd: res.ResidualStdDev(),
			Iterations:  res.Iterations,
		}
		d.logger.Info("frame", "time", t, "n_max", p.PeakDensity, "sigma", p.Uncertainty)

		if err := d.sink.Record(p); err != nil {
			return sum, fmt.Errorf("record %.3f: %w", t, err)
		}
		sum.Recorded++
	}
	return sum, nil
}

// Summarize computes statistics of the peak densities in points.
func Summarize(points []Point) (Stats, error) {
	data := make(stats.Float64Data, len(points))
	for i, p := range points {
		data[i] = p.PeakDensity
	}

	var s Stats
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return Stats{}, err
	}
	if s.Min, err = data.Min(); err != nil {
		return Stats{}, err
	}
	if s.Max, err = data.Max(); err != nil {
		return Stats{}, err
	}
	if len(data) > 1 {
		if s.StdDev, err = data.StandardDeviationSample(); err != nil {
			return Stats{}, err
		}
	}
	return s, nil
}
