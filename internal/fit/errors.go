package fit

import (
	"errors"
	"fmt"

	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

var (
	// ErrInvalidInput is shared with the forward model so callers can test
	// for either with one errors.Is.
	ErrInvalidInput = forward.ErrInvalidInput

	// ErrNotConverged indicates the optimizer could not produce a
	// physically meaningful optimum with a defined covariance.
	ErrNotConverged = errors.New("fit: not converged")
)

// ConvergenceError describes why a fit was abandoned. Params holds the
// last accepted estimate.
type ConvergenceError struct {
	Reason     string
	Iterations int
	Cost       float64
	Params     profile.Params
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations: %s", ErrNotConverged, e.Iterations, e.Reason)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNotConverged
}
