package evolution

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// Point is the outcome of one converged frame.
type Point struct {
	Time        float64        `json:"time"`
	PeakDensity float64        `json:"peak_density"`
	Uncertainty float64        `json:"uncertainty"`
	Params      profile.Params `json:"params"`
	ResidualStd float64        `json:"residual_std"`
	Iterations  int            `json:"iterations"`
}

// Sink receives points in time order.
type Sink interface {
	Record(p Point) error
	Close() error
}

// TSVSink writes "time<TAB>n_max<TAB>sigma" lines.
type TSVSink struct {
	w io.Writer
}

func NewTSVSink(w io.Writer) *TSVSink {
	return &TSVSink{w: w}
}

func (s *TSVSink) Record(p Point) error {
	_, err := fmt.Fprintf(s.w, "%f\t%g\t%g\n", p.Time, p.PeakDensity, p.Uncertainty)
	return err
}

// Close closes the writer when it is an io.Closer.
func (s *TSVSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MemorySink keeps every point.
type MemorySink struct {
	mu     sync.Mutex
	points []Point
}

func (s *MemorySink) Record(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
	return nil
}

func (s *MemorySink) Close() error { return nil }

func (s *MemorySink) Points() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Point(nil), s.points...)
}

// MultiSink fans every point out to all sinks.
type MultiSink []Sink

func (m MultiSink) Record(p Point) error {
	for _, s := range m {
		if err := s.Record(p); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to a Sink with a no-op Close.
type SinkFunc func(Point) error

func (f SinkFunc) Record(p Point) error { return f(p) }
func (f SinkFunc) Close() error         { return nil }
