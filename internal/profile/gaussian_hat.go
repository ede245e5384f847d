package profile

import "math"

// GaussianHat is a parabolic profile with a Gaussian peaking on axis:
//
//	n(x)/n0 = (1 - (x/a)^2)^alpha + A^2 exp(-(x/sigma)^2)
//
// Parameters: (n0, alpha, A, sigma). The amplitude enters squared so the
// sign of A is irrelevant.
type GaussianHat struct{}

func (GaussianHat) Name() string { return "gaussian_hat" }

func (GaussianHat) ParamNames() []string {
	return []string{"n0", "alpha", "A", "sigma"}
}

func (GaussianHat) DefaultShape(radius float64) []float64 {
	return []float64{1.1, 0.45, radius / 4.8}
}

func (m GaussianHat) Bind(p Params, radius float64) Shape {
	checkLen(m, p)
	alpha, amp, sigma := p[1], p[2], p[3]

	switch {
	case alpha <= 0:
		return zeroShape(radius)
	case sigma == 0:
		return parabolicShape(alpha, radius, ParabolicOnly)
	}

	a2 := amp * amp
	return Shape{
		Degeneracy: Regular,
		Radius:     radius,
		peak:       1 + a2,
		eval: func(x float64) float64 {
			u := x / radius
			g := x / sigma
			return math.Pow(1-u*u, alpha) + a2*math.Exp(-g*g)
		},
	}
}
