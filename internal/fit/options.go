package fit

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Options configures the Levenberg-Marquardt solver.
type Options struct {
	// MaxIterations bounds the number of Jacobian evaluations.
	MaxIterations int `yaml:"max_iterations"`
	// FTol stops when both the actual and predicted relative reductions
	// of the cost fall below it.
	FTol float64 `yaml:"ftol"`
	// XTol stops when the scaled step is this small relative to the
	// scaled parameters.
	XTol float64 `yaml:"xtol"`
	// GTol stops when every column of the Jacobian is nearly orthogonal
	// to the residual vector.
	GTol float64 `yaml:"gtol"`
	// DiffStep is the relative forward-difference step.
	DiffStep float64 `yaml:"diff_step"`
	// InitialDamping is multiplied by the largest diagonal entry of the
	// scaled normal matrix to seed the damping parameter.
	InitialDamping float64 `yaml:"initial_damping"`
	// MaxDamping abandons the fit when no step improves the cost before
	// damping grows past it.
	MaxDamping float64 `yaml:"max_damping"`
	// TruncateAtCrossing restricts the fit to the samples before the first
	// delay above Guess.CrossThreshold.
	TruncateAtCrossing bool `yaml:"truncate_at_crossing"`

	Guess GuessOptions `yaml:"guess"`

	Logger *log.Logger `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		MaxIterations:  200,
		FTol:           1e-8,
		XTol:           1e-8,
		GTol:           1e-10,
		DiffStep:       1e-4,
		InitialDamping: 1e-3,
		MaxDamping:     1e16,
		Guess:          DefaultGuessOptions(),
	}
}

func (o Options) Validate() error {
	if o.MaxIterations < 1 {
		return fmt.Errorf("fit: max_iterations must be positive, got %d", o.MaxIterations)
	}
	if o.FTol < 0 || o.XTol < 0 || o.GTol < 0 {
		return fmt.Errorf("fit: tolerances must be non-negative")
	}
	if o.DiffStep <= 0 || o.DiffStep >= 1 {
		return fmt.Errorf("fit: diff_step must be in (0, 1), got %g", o.DiffStep)
	}
	if o.InitialDamping <= 0 {
		return fmt.Errorf("fit: initial_damping must be positive, got %g", o.InitialDamping)
	}
	if o.MaxDamping <= o.InitialDamping {
		return fmt.Errorf("fit: max_damping must exceed initial_damping")
	}
	return o.Guess.Validate()
}
