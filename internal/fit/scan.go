package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// DefaultScanFactors multiply every guessed parameter in ScanGrid.
var DefaultScanFactors = []float64{0.7, 1, 1.4}

// ScanGrid spans factors around every parameter of guess.
func ScanGrid(guess profile.Params, factors []float64) [][]float64 {
	grid := make([][]float64, len(guess))
	for j, v := range guess {
		grid[j] = make([]float64, len(factors))
		for k, f := range factors {
			grid[j][k] = f * v
		}
	}
	return grid
}

// Scan evaluates the cost at every point of the grid, where grid[j]
// lists the candidate values of parameter j, and returns the cheapest
// point. Points the forward model rejects are skipped.
func (d *Driver) Scan(ctx context.Context, freqs, delays []float64, grid [][]float64) (profile.Params, float64, error) {
	if err := d.validate(freqs, delays, nil); err != nil {
		return nil, 0, err
	}
	m := len(d.engine.Model().ParamNames())
	if len(grid) != m {
		return nil, 0, fmt.Errorf("%w: grid has %d axes for %d parameters", ErrInvalidInput, len(grid), m)
	}
	for j, axis := range grid {
		if len(axis) == 0 {
			return nil, 0, fmt.Errorf("%w: empty grid axis %d", ErrInvalidInput, j)
		}
	}

	used := d.usable(delays)
	f, y := freqs[:used], delays[:used]
	resid := make([]float64, used)

	best := math.Inf(1)
	var bestParams profile.Params
	current := make(profile.Params, m)

	var search func(depth int) error
	search = func(depth int) error {
		if depth == m {
			pred, err := d.engine.Predict(ctx, f, current)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			floats.SubTo(resid, y, pred)
			if cost := 0.5 * floats.Dot(resid, resid); cost < best {
				best = cost
				bestParams = current.Clone()
			}
			return nil
		}
		for _, v := range grid[depth] {
			current[depth] = v
			if err := search(depth + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := search(0); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("%w: no grid point could be evaluated", ErrInvalidInput)
	}
	d.logger.Debug("scan done", "best", []float64(bestParams), "cost", best)
	return bestParams, best, nil
}

// FitScan scans ScanGrid around the heuristic guess and fits from the
// cheapest point.
func (d *Driver) FitScan(ctx context.Context, freqs, delays []float64, factors []float64) (*Result, error) {
	if err := d.validate(freqs, delays, nil); err != nil {
		return nil, err
	}
	guess, _ := d.Guess(freqs, delays)
	start, _, err := d.Scan(ctx, freqs, delays, ScanGrid(guess, factors))
	if err != nil {
		return nil, err
	}
	return d.Fit(ctx, freqs, delays, start)
}
