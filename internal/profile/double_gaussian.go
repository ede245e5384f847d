package profile

import "math"

// DoubleGaussian is a sum of two centred Gaussians:
//
//	n(x)/n0 = exp(-(x/s1)^2) + A^2 exp(-(x/s2)^2)
//
// Parameters: (n0, A, s1, s2). A zero width drops the matching term.
type DoubleGaussian struct{}

func (DoubleGaussian) Name() string { return "double_gaussian" }

func (DoubleGaussian) ParamNames() []string {
	return []string{"n0", "A", "sigma1", "sigma2"}
}

func (DoubleGaussian) DefaultShape(radius float64) []float64 {
	return []float64{0.45, radius / 2, radius / 4.8}
}

func (m DoubleGaussian) Bind(p Params, radius float64) Shape {
	checkLen(m, p)
	amp, s1, s2 := p[1], p[2], p[3]
	a2 := amp * amp

	switch {
	case s1 == 0 && s2 == 0:
		return zeroShape(radius)
	case s1 == 0:
		return Shape{
			Degeneracy: FirstGaussianDropped,
			Radius:     radius,
			peak:       a2,
			eval:       func(x float64) float64 { return a2 * gauss(x, s2) },
		}
	case s2 == 0:
		return Shape{
			Degeneracy: SecondGaussianDropped,
			Radius:     radius,
			peak:       1,
			eval:       func(x float64) float64 { return gauss(x, s1) },
		}
	}

	return Shape{
		Degeneracy: Regular,
		Radius:     radius,
		peak:       1 + a2,
		eval: func(x float64) float64 {
			return gauss(x, s1) + a2*gauss(x, s2)
		},
	}
}

func gauss(x, s float64) float64 {
	u := x / s
	return math.Exp(-u * u)
}
