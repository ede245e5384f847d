package plasma

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry indicates a radius pair that cannot describe a device.
var ErrInvalidGeometry = errors.New("plasma: invalid geometry")

// Geometry describes the radial layout seen by the reflectometer antenna.
type Geometry struct {
	// MinorRadius is the plasma radius a (m).
	MinorRadius float64 `yaml:"minor_radius" json:"minor_radius"`
	// WallRadius is the distance from the plasma centre to the chamber
	// wall where the antenna sits (m).
	WallRadius float64 `yaml:"wall_radius" json:"wall_radius"`
}

// TCABR is the geometry of the TCABR tokamak reflectometer.
var TCABR = Geometry{MinorRadius: 0.18, WallRadius: 0.22}

func (g Geometry) Validate() error {
	if math.IsNaN(g.MinorRadius) || math.IsInf(g.MinorRadius, 0) ||
		math.IsNaN(g.WallRadius) || math.IsInf(g.WallRadius, 0) {
		return fmt.Errorf("%w: non-finite radius", ErrInvalidGeometry)
	}
	if g.MinorRadius <= 0 {
		return fmt.Errorf("%w: minor radius must be positive, got %g", ErrInvalidGeometry, g.MinorRadius)
	}
	if g.WallRadius <= g.MinorRadius {
		return fmt.Errorf("%w: wall radius %g must exceed minor radius %g", ErrInvalidGeometry, g.WallRadius, g.MinorRadius)
	}
	return nil
}

// VacuumDelay is the round-trip time across the vacuum gap between the
// plasma edge and the wall, 2·(Rwall − a)/c.
func (g Geometry) VacuumDelay() float64 {
	return 2 * (g.WallRadius - g.MinorRadius) / SpeedOfLight
}

// ReferenceDelay is the round-trip time from the wall to the far side of
// the chamber, 2·(a + Rwall)/c. Beat-frequency measurements are relative
// to a vacuum shot, which reflects there.
func (g Geometry) ReferenceDelay() float64 {
	return 2 * (g.MinorRadius + g.WallRadius) / SpeedOfLight
}
