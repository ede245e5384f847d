package probe

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// BeatOptions bounds the spectral peak search of BeatFrequencies.
type BeatOptions struct {
	// PadTo is the FFT length; windows are zero padded to it.
	PadTo int `yaml:"pad_to" json:"pad_to"`
	// MinBeat and MaxBeat bound the beat frequency search (Hz).
	MinBeat float64 `yaml:"min_beat" json:"min_beat"`
	MaxBeat float64 `yaml:"max_beat" json:"max_beat"`
}

func DefaultBeatOptions() BeatOptions {
	return BeatOptions{PadTo: 4096, MinBeat: 3.5e6, MaxBeat: 15.5e6}
}

// BeatFrequencies returns the dominant beat frequency of every
// spectrogram window of s. The power spectra of all sweeps are averaged
// before the peak is taken, one value per entry of s.Times().
func BeatFrequencies(sweeps [][]float64, s Sweep, opts BeatOptions) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(sweeps) == 0 {
		return nil, fmt.Errorf("%w: no sweeps", ErrLengthMismatch)
	}
	n := s.Samples()
	for i, sw := range sweeps {
		if len(sw) < n {
			return nil, fmt.Errorf("%w: sweep %d has %d samples, want %d", ErrLengthMismatch, i, len(sw), n)
		}
	}

	nfft := s.WindowSize()
	pad := opts.PadTo
	if pad < nfft {
		pad = nextPow2(nfft)
	}
	lo := int(math.Ceil(opts.MinBeat * float64(pad) / s.SampleRate))
	hi := int(math.Floor(opts.MaxBeat * float64(pad) / s.SampleRate))
	lo = max(lo, 0)
	hi = min(hi, pad/2)
	if hi < lo {
		return nil, fmt.Errorf("%w: empty beat range [%g, %g] Hz", ErrInvalidSweep, opts.MinBeat, opts.MaxBeat)
	}

	win := window.Hann(nfft)
	windows := len(s.Times())
	power := make([]float64, hi-lo+1)
	buf := make([]float64, pad)
	out := make([]float64, windows)

	for w := 0; w < windows; w++ {
		off := w * s.FFTStep
		for k := range power {
			power[k] = 0
		}
		for _, sw := range sweeps {
			for i := range buf {
				buf[i] = 0
			}
			for i := 0; i < nfft; i++ {
				buf[i] = sw[off+i] * win[i]
			}
			spectrum := fft.FFTReal(buf)
			for k := lo; k <= hi; k++ {
				a := cmplx.Abs(spectrum[k])
				power[k-lo] += a * a
			}
		}

		best := 0
		for k, p := range power {
			if p > power[best] {
				best = k
			}
		}
		out[w] = float64(best+lo) * s.SampleRate / float64(pad)
	}
	return out, nil
}

// AxisBeats measures both bands and lays the result out on axis a.
func AxisBeats(k, ka [][]float64, a Axis, s Sweep, opts BeatOptions) ([]float64, error) {
	bk, err := BeatFrequencies(k, s, opts)
	if err != nil {
		return nil, fmt.Errorf("K band: %w", err)
	}
	bka, err := BeatFrequencies(ka, s, opts)
	if err != nil {
		return nil, fmt.Errorf("Ka band: %w", err)
	}
	if a.KaStart > len(bk) || len(a.Frequencies)-a.KaStart != len(bka) {
		return nil, fmt.Errorf("%w: axis does not match sweep", ErrLengthMismatch)
	}
	out := make([]float64, 0, len(a.Frequencies))
	out = append(out, bk[:a.KaStart]...)
	return append(out, bka...), nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
