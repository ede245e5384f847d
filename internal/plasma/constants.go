package plasma

import "math"

// SI constants, same values as the reflectometer analysis has always used.
const (
	VacuumPermittivity = 8.854187817e-12 // F/m
	ElementaryCharge   = 1.6021766e-19   // C
	SpeedOfLight       = 299792458.0     // m/s
	ElectronMass       = 9.109389e-31    // kg
)

// densityPerHz2 is 4π²·mₑ·ε0/e², so n = densityPerHz2·F².
var densityPerHz2 = 4 * math.Pi * math.Pi * ElectronMass * VacuumPermittivity /
	(ElementaryCharge * ElementaryCharge)

// CriticalDensity converts a probe frequency (Hz) to the electron density
// (m⁻³) at which an O-mode wave of that frequency is reflected.
func CriticalDensity(freq float64) float64 {
	return densityPerHz2 * freq * freq
}

// CriticalFrequency is the inverse of CriticalDensity. Non-positive
// densities map to 0.
func CriticalFrequency(density float64) float64 {
	if density <= 0 {
		return 0
	}
	return math.Sqrt(density / densityPerHz2)
}
