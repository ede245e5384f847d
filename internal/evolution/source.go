package evolution

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// ErrNoFrame indicates the source has no measurement near the requested
// time.
var ErrNoFrame = errors.New("evolution: no frame at requested time")

// Frame is one sweep's worth of group delay measurements.
type Frame struct {
	Time        float64
	Frequencies []float64
	Delays      []float64
}

// Source supplies measurements by time (ms).
type Source interface {
	Frame(ctx context.Context, t float64) (Frame, error)
}

// MemorySource serves frames held in memory, matched to the nearest time
// within Tolerance.
type MemorySource struct {
	Tolerance float64
	frames    []Frame
}

func NewMemorySource(tolerance float64, frames ...Frame) *MemorySource {
	s := &MemorySource{Tolerance: tolerance, frames: append([]Frame(nil), frames...)}
	sort.Slice(s.frames, func(i, j int) bool { return s.frames[i].Time < s.frames[j].Time })
	return s
}

func (s *MemorySource) Add(f Frame) {
	i := sort.Search(len(s.frames), func(i int) bool { return s.frames[i].Time >= f.Time })
	s.frames = append(s.frames, Frame{})
	copy(s.frames[i+1:], s.frames[i:])
	s.frames[i] = f
}

func (s *MemorySource) Times() []float64 {
	out := make([]float64, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Time
	}
	return out
}

func (s *MemorySource) Frame(ctx context.Context, t float64) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	i := sort.Search(len(s.frames), func(i int) bool { return s.frames[i].Time >= t })

	best, bestDist := -1, math.Inf(1)
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(s.frames) {
			continue
		}
		if d := math.Abs(s.frames[j].Time - t); d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 || bestDist > s.Tolerance {
		return Frame{}, fmt.Errorf("%w: t=%.3f", ErrNoFrame, t)
	}
	return s.frames[best], nil
}

// ReadCSV loads frames from rows of time (ms), frequency (Hz) and delay
// (s). A header row is skipped. Rows sharing a time form one frame.
func ReadCSV(r io.Reader, tolerance float64) (*MemorySource, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	byTime := make(map[float64]*Frame)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		vals := make([]float64, 3)
		for i, field := range rec {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		f, ok := byTime[vals[0]]
		if !ok {
			f = &Frame{Time: vals[0]}
			byTime[vals[0]] = f
		}
		f.Frequencies = append(f.Frequencies, vals[1])
		f.Delays = append(f.Delays, vals[2])
	}

	src := NewMemorySource(tolerance)
	for _, f := range byTime {
		src.Add(*f)
	}
	return src, nil
}

// WriteCSV writes frames in the layout read by ReadCSV.
func WriteCSV(w io.Writer, frames []Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time_ms", "frequency_hz", "delay_s"}); err != nil {
		return err
	}
	for _, f := range frames {
		for i := range f.Frequencies {
			if err := cw.Write([]string{
				strconv.FormatFloat(f.Time, 'g', -1, 64),
				strconv.FormatFloat(f.Frequencies[i], 'g', -1, 64),
				strconv.FormatFloat(f.Delays[i], 'g', -1, 64),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, tolerance float64) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, tolerance)
}

// SyntheticSource predicts frames from a time dependent parameter vector
// and adds Gaussian noise of standard deviation Noise (s).
type SyntheticSource struct {
	Engine      *forward.Engine
	Frequencies []float64
	Params      func(t float64) profile.Params
	Noise       float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSyntheticSource(e *forward.Engine, freqs []float64, params func(float64) profile.Params, noise float64, seed int64) *SyntheticSource {
	return &SyntheticSource{
		Engine:      e,
		Frequencies: freqs,
		Params:      params,
		Noise:       noise,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (s *SyntheticSource) Frame(ctx context.Context, t float64) (Frame, error) {
	delays, err := s.Engine.Predict(ctx, s.Frequencies, s.Params(t))
	if err != nil {
		return Frame{}, err
	}
	if s.Noise > 0 {
		s.mu.Lock()
		for i := range delays {
			delays[i] += s.Noise * s.rng.NormFloat64()
		}
		s.mu.Unlock()
	}
	return Frame{Time: t, Frequencies: append([]float64(nil), s.Frequencies...), Delays: delays}, nil
}
