package forward

import "fmt"

// Branch names the formula that produced a sample's delay.
type Branch int

const (
	// BranchZero is the degenerate all-zero profile.
	BranchZero Branch = iota
	// BranchReflected is a cutoff inside the plasma.
	BranchReflected
	// BranchTransmitted is a wave crossing the whole plasma and returning
	// from the wall.
	BranchTransmitted
)

func (b Branch) String() string {
	switch b {
	case BranchZero:
		return "zero"
	case BranchReflected:
		return "reflected"
	case BranchTransmitted:
		return "transmitted"
	default:
		return fmt.Sprintf("branch(%d)", int(b))
	}
}

// SampleTrace records how one probe frequency was evaluated.
type SampleTrace struct {
	Frequency float64 `json:"frequency"`
	// Ratio is the critical density over n0.
	Ratio  float64 `json:"ratio"`
	Branch Branch  `json:"branch"`
	// TurningPoint is the cutoff radius (m), zero unless reflected.
	TurningPoint float64 `json:"turning_point"`
	Delay        float64 `json:"delay"`
}
