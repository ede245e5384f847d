package probe

import (
	"errors"
	"math"
	"testing"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
)

func TestSweepGeometry(t *testing.T) {
	s := TCABRSweep
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := s.Samples(); got != 800 {
		t.Errorf("samples = %d, want 800", got)
	}
	if got := s.WindowSize(); got != 128 {
		t.Errorf("window = %d, want 128", got)
	}
	times := s.Times()
	if len(times) != 337 {
		t.Fatalf("windows = %d, want 337", len(times))
	}
	if math.Abs(times[0]-64/s.SampleRate) > 1e-15 {
		t.Errorf("first window centre = %g", times[0])
	}
	if math.Abs(times[len(times)-1]-736/s.SampleRate) > 1e-15 {
		t.Errorf("last window centre = %g", times[len(times)-1])
	}
}

func TestPreviousPow2(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{160, 7},
		{128, 6},
		{129, 7},
		{3, 1},
	}
	for _, tt := range tests {
		if got := previousPow2(tt.in); got != tt.want {
			t.Errorf("previousPow2(%g) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAxisBands(t *testing.T) {
	a, err := NewAxis(TCABRSweep)
	if err != nil {
		t.Fatal(err)
	}

	if a.KaStart == 0 || a.KaStart >= len(a.Frequencies) {
		t.Fatalf("KaStart = %d out of range", a.KaStart)
	}
	if a.Overlap != 0 {
		t.Errorf("TCABR bands are disjoint, got %d dropped K samples", a.Overlap)
	}
	if a.KaStart != len(TCABRSweep.Times()) {
		t.Errorf("KaStart = %d, want every K sample kept", a.KaStart)
	}
	if a.Frequencies[a.KaStart-1] >= a.Frequencies[a.KaStart] {
		t.Error("K band must end below the start of the Ka band")
	}
	for i := 1; i < len(a.Frequencies); i++ {
		if a.Frequencies[i] <= a.Frequencies[i-1] {
			t.Fatalf("axis not increasing at %d", i)
		}
	}

	if a.Band(0) != K || a.Band(a.KaStart) != Ka {
		t.Error("band lookup wrong")
	}
	if got := a.Frequencies[0]; math.Abs(got-2*TCABRSweep.Frequency(Band{Multiplier: 1}, TCABRSweep.Times()[0])) > 1 {
		t.Errorf("K band is not doubled: %g", got)
	}
	last := a.Frequencies[len(a.Frequencies)-1]
	if want := 3 * (8.4e9 + TCABRSweep.Rate()*736/TCABRSweep.SampleRate); math.Abs(last-want) > 1 {
		t.Errorf("last Ka frequency = %g, want %g", last, want)
	}
}

func TestAxisDropsOverlappingK(t *testing.T) {
	s := Sweep{StartFreq: 8e9, StopFreq: 16e9, Duration: 8e-6, SampleRate: 100e6, FFTStep: 2}
	a, err := NewAxis(s)
	if err != nil {
		t.Fatal(err)
	}

	n := len(s.Times())
	if a.Overlap <= 0 {
		t.Fatal("expected overlapping K band samples to be dropped")
	}
	if a.KaStart+a.Overlap != n {
		t.Errorf("kept %d + dropped %d != %d windows", a.KaStart, a.Overlap, n)
	}
	if len(a.Frequencies) != a.KaStart+n {
		t.Errorf("axis length = %d, want %d", len(a.Frequencies), a.KaStart+n)
	}
	if a.Frequencies[a.KaStart-1] >= a.Frequencies[a.KaStart] {
		t.Error("kept K samples must lie below the first Ka frequency")
	}
}

func TestBeatToDelay(t *testing.T) {
	s := TCABRSweep
	a, err := NewAxis(s)
	if err != nil {
		t.Fatal(err)
	}

	n := len(a.Frequencies)
	vac := make([]float64, n)
	beat := make([]float64, n)
	for i := range beat {
		vac[i] = 1e6
		beat[i] = 1e6 + 2e5
	}

	got, err := BeatToDelay(beat, vac, a, s, plasma.TCABR)
	if err != nil {
		t.Fatal(err)
	}
	ref := plasma.TCABR.ReferenceDelay()
	for _, i := range []int{0, a.KaStart - 1, a.KaStart, n - 1} {
		want := 2e5/(a.Band(i).Multiplier*s.Rate()) + ref
		if math.Abs(got[i]-want) > 1e-18 {
			t.Errorf("delay[%d] = %g, want %g", i, got[i], want)
		}
	}

	same, err := BeatToDelay(vac, vac, a, s, plasma.TCABR)
	if err != nil {
		t.Fatal(err)
	}
	if same[0] != ref {
		t.Errorf("vacuum shot delay = %g, want reference %g", same[0], ref)
	}

	if _, err := BeatToDelay(beat[:3], vac, a, s, plasma.TCABR); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestSweepValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Sweep)
	}{
		{"zero start", func(s *Sweep) { s.StartFreq = 0 }},
		{"inverted", func(s *Sweep) { s.StopFreq = 1e9 }},
		{"no duration", func(s *Sweep) { s.Duration = 0 }},
		{"no rate", func(s *Sweep) { s.SampleRate = 0 }},
		{"no step", func(s *Sweep) { s.FFTStep = 0 }},
		{"too short", func(s *Sweep) { s.Duration = 5e-8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := TCABRSweep
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSweep) {
				t.Errorf("expected ErrInvalidSweep, got %v", err)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	f, v, err := Window([]float64{18, 19, 22, 25.3, 26}, []float64{1, 2, 3, 4, 5}, 19, 25.3)
	if err != nil {
		t.Fatal(err)
	}
	if len(f) != 3 || f[0] != 19 || f[2] != 25.3 || v[1] != 3 {
		t.Errorf("window = %v %v", f, v)
	}
	if _, _, err := Window([]float64{1}, nil, 0, 2); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}
