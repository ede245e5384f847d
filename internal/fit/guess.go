package fit

import (
	"fmt"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// GuessOptions controls the starting point heuristic.
type GuessOptions struct {
	// CrossThreshold is the delay (s) above which the wave is taken to
	// cross the plasma centre.
	CrossThreshold float64 `yaml:"cross_threshold"`
	// FallbackFrequency (Hz) sets the reference density when no sample
	// crosses the threshold.
	FallbackFrequency float64 `yaml:"fallback_frequency"`
	// DensityScale multiplies the reference density to give n0.
	DensityScale float64 `yaml:"density_scale"`
}

func DefaultGuessOptions() GuessOptions {
	return GuessOptions{
		CrossThreshold:    2.2e-9,
		FallbackFrequency: 40.5e9,
		DensityScale:      0.87,
	}
}

func (o GuessOptions) Validate() error {
	if o.CrossThreshold <= 0 {
		return fmt.Errorf("fit: cross_threshold must be positive, got %g", o.CrossThreshold)
	}
	if o.FallbackFrequency <= 0 {
		return fmt.Errorf("fit: fallback_frequency must be positive, got %g", o.FallbackFrequency)
	}
	if o.DensityScale <= 0 {
		return fmt.Errorf("fit: density_scale must be positive, got %g", o.DensityScale)
	}
	return nil
}

// CrossingIndex returns the first index whose delay exceeds threshold, or
// -1 when none does.
func CrossingIndex(delays []float64, threshold float64) int {
	for i, d := range delays {
		if d > threshold {
			return i
		}
	}
	return -1
}

// Guess builds a starting vector for m. The reference density is the
// critical density at the first crossing frequency; a crossing at index 0
// carries no information and falls back like no crossing at all.
func Guess(m profile.Model, g plasma.Geometry, freqs, delays []float64, opts GuessOptions) (profile.Params, int) {
	idx := CrossingIndex(delays, opts.CrossThreshold)

	ref := plasma.CriticalDensity(opts.FallbackFrequency)
	if idx > 0 && idx < len(freqs) {
		ref = plasma.CriticalDensity(freqs[idx])
	}
	return profile.Guess(m, opts.DensityScale*ref, g.MinorRadius), idx
}
