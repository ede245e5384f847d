package roots

import (
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// TurningPoint returns the radial position in [0, a] where the profile
// crosses ratio, i.e. the reflecting layer for a wave whose critical
// density is ratio·n0.
//
// When profile(0) - ratio and profile(a) - ratio do not strictly differ in
// sign there is no interior crossing and the plasma radius is returned:
// the layer sits at or beyond the edge.
func TurningPoint(s profile.Shape, ratio float64, opts Options) (float64, error) {
	a := s.Radius
	g := func(x float64) float64 { return s.At(x) - ratio }

	if !OppositeSigns(g(0), g(a)) {
		return a, nil
	}
	if x, ok := s.Invert(ratio); ok {
		return x, nil
	}
	return Brent(g, 0, a, opts)
}
