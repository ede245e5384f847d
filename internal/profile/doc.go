// Package profile provides the normalized radial density profiles fitted to
// reflectometry group-delay data.
//
// Each family implements [Model]:
//
//   - [Parabolic]: (1 - (x/a)^2)^alpha
//   - [GaussianHat]: parabolic plus a central Gaussian "hat"
//   - [DoubleGaussian]: sum of two centred Gaussians
//
// A parameter vector is bound to a [Shape] once per evaluation. Binding
// classifies the vector into a [Degeneracy] so that limit cases (zero
// exponent, zero width) are decided a single time and never re-derived
// while integrating.
//
// # Example
//
//	m := profile.GaussianHat{}
//	s := m.Bind(profile.Params{1.5e19, 1.1, 0.45, 0.0375}, 0.18)
//	if s.Degeneracy == profile.ZeroProfile {
//	    // forward model is identically zero
//	}
//	n := s.At(0.05) // fraction of n0
package profile
