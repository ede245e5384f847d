// Package probe describes the swept-frequency reflectometer: the probe
// frequency axis of one sweep, beat frequency estimation from digitized
// sweeps and the conversion of beat frequencies into group delay.
package probe

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidSweep   = errors.New("probe: invalid sweep")
	ErrLengthMismatch = errors.New("probe: length mismatch")
)

// Band is a microwave band fed by the swept oscillator through a
// frequency multiplier.
type Band struct {
	Name       string
	Multiplier float64
}

var (
	K  = Band{Name: "K", Multiplier: 2}
	Ka = Band{Name: "Ka", Multiplier: 3}
)

// Sweep is one oscillator ramp, shared by both bands.
type Sweep struct {
	// StartFreq and StopFreq bound the oscillator ramp (Hz), before
	// multiplication.
	StartFreq float64 `yaml:"start_freq" json:"start_freq"`
	StopFreq  float64 `yaml:"stop_freq" json:"stop_freq"`
	// Duration of one ramp (s).
	Duration float64 `yaml:"duration" json:"duration"`
	// SampleRate of the digitizer (Hz).
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
	// FFTStep is the hop, in samples, between spectrogram windows.
	FFTStep int `yaml:"fft_step" json:"fft_step"`
}

// TCABRSweep is the K/Ka reflectometer oscillator of TCABR.
var TCABRSweep = Sweep{
	StartFreq:  8.4e9,
	StopFreq:   13.5e9,
	Duration:   8e-6,
	SampleRate: 100e6,
	FFTStep:    2,
}

func (s Sweep) Validate() error {
	switch {
	case !(s.StartFreq > 0) || math.IsInf(s.StartFreq, 0):
		return fmt.Errorf("%w: start frequency %g", ErrInvalidSweep, s.StartFreq)
	case !(s.StopFreq > s.StartFreq) || math.IsInf(s.StopFreq, 0):
		return fmt.Errorf("%w: stop frequency %g must exceed start %g", ErrInvalidSweep, s.StopFreq, s.StartFreq)
	case !(s.Duration > 0):
		return fmt.Errorf("%w: duration %g", ErrInvalidSweep, s.Duration)
	case !(s.SampleRate > 0):
		return fmt.Errorf("%w: sample rate %g", ErrInvalidSweep, s.SampleRate)
	case s.FFTStep < 1:
		return fmt.Errorf("%w: fft step %d", ErrInvalidSweep, s.FFTStep)
	}
	if s.Samples() < 2*s.WindowSize() || s.WindowSize() < 2 {
		return fmt.Errorf("%w: %d samples per sweep is too few", ErrInvalidSweep, s.Samples())
	}
	return nil
}

// Rate is the oscillator ramp rate (Hz/s).
func (s Sweep) Rate() float64 {
	return (s.StopFreq - s.StartFreq) / s.Duration
}

// Samples is the number of digitizer samples in one ramp.
func (s Sweep) Samples() int {
	return int(s.Duration * s.SampleRate)
}

// WindowSize is the spectrogram window: the largest power of two below a
// fifth of the sweep.
func (s Sweep) WindowSize() int {
	return 1 << previousPow2(float64(s.Samples())/5)
}

func previousPow2(v float64) int {
	i := 1
	for math.Pow(2, float64(i)) < v {
		i++
	}
	return i - 1
}

// Times returns the ramp time (s) at the centre of every spectrogram
// window.
func (s Sweep) Times() []float64 {
	nfft := s.WindowSize()
	n := (s.Samples()-nfft)/s.FFTStep + 1
	t0 := float64(nfft/2) / s.SampleRate
	t1 := float64(s.Samples()-nfft/2) / s.SampleRate

	out := make([]float64, n)
	for i := range out {
		if n == 1 {
			out[i] = t0
			continue
		}
		out[i] = t0 + (t1-t0)*float64(i)/float64(n-1)
	}
	return out
}

// Frequency is the probe frequency of band b at ramp time t.
func (s Sweep) Frequency(b Band, t float64) float64 {
	return b.Multiplier * (s.StartFreq + s.Rate()*t)
}
