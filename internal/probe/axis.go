package probe

import (
	"fmt"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
)

// Axis is the probe frequency axis of one sweep: the K band followed by
// the Ka band. K band frequencies overlapping the Ka band are dropped.
type Axis struct {
	Frequencies []float64
	// KaStart is the index of the first Ka band frequency.
	KaStart int
	// Overlap is the number of K band frequencies dropped. KaStart is the
	// number kept.
	Overlap int
}

// NewAxis builds the two-band axis of s.
func NewAxis(s Sweep) (Axis, error) {
	if err := s.Validate(); err != nil {
		return Axis{}, err
	}
	times := s.Times()

	ka := make([]float64, len(times))
	for i, t := range times {
		ka[i] = s.Frequency(Ka, t)
	}

	freqs := make([]float64, 0, 2*len(times))
	for _, t := range times {
		if f := s.Frequency(K, t); f < ka[0] {
			freqs = append(freqs, f)
		}
	}
	kaStart := len(freqs)

	return Axis{
		Frequencies: append(freqs, ka...),
		KaStart:     kaStart,
		Overlap:     len(times) - kaStart,
	}, nil
}

// Band returns the band of sample i.
func (a Axis) Band(i int) Band {
	if i < a.KaStart {
		return K
	}
	return Ka
}

// BeatToDelay converts beat frequencies (Hz) measured on axis into group
// delays (s). The vacuum beat is the same measurement without plasma; its
// reflection sits at the far wall, so the reference path is added back.
func BeatToDelay(beat, vacuum []float64, a Axis, s Sweep, g plasma.Geometry) ([]float64, error) {
	if len(beat) != len(a.Frequencies) || len(vacuum) != len(a.Frequencies) {
		return nil, fmt.Errorf("%w: axis %d, beat %d, vacuum %d", ErrLengthMismatch, len(a.Frequencies), len(beat), len(vacuum))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rate := s.Rate()
	ref := g.ReferenceDelay()
	out := make([]float64, len(beat))
	for i := range beat {
		out[i] = (beat[i]-vacuum[i])/(a.Band(i).Multiplier*rate) + ref
	}
	return out, nil
}

// Window keeps the samples whose frequency lies in [lo, hi].
func Window(freqs, values []float64, lo, hi float64) ([]float64, []float64, error) {
	if len(freqs) != len(values) {
		return nil, nil, fmt.Errorf("%w: %d frequencies, %d values", ErrLengthMismatch, len(freqs), len(values))
	}
	var f, v []float64
	for i, x := range freqs {
		if x >= lo && x <= hi {
			f = append(f, x)
			v = append(v, values[i])
		}
	}
	return f, v, nil
}
