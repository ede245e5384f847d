package forward

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates inputs rejected before any work is done.
	ErrInvalidInput = errors.New("forward: invalid input")

	// ErrComputationFault indicates a NaN or Inf appeared while evaluating
	// a sample.
	ErrComputationFault = errors.New("forward: computation fault (NaN or Inf detected)")
)

// SampleError ties a failure to the probe frequency that caused it.
type SampleError struct {
	Index     int
	Frequency float64
	Wrapped   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (%.4g Hz): %v", e.Index, e.Frequency, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
