package profile

import "math"

// Parabolic is n(x)/n0 = (1 - (x/a)^2)^alpha. Parameters: (n0, alpha).
type Parabolic struct{}

func (Parabolic) Name() string         { return "parabolic" }
func (Parabolic) ParamNames() []string { return []string{"n0", "alpha"} }

func (Parabolic) DefaultShape(radius float64) []float64 {
	return []float64{1.1}
}

func (m Parabolic) Bind(p Params, radius float64) Shape {
	checkLen(m, p)
	alpha := p[1]
	if alpha <= 0 {
		return zeroShape(radius)
	}
	return parabolicShape(alpha, radius, Regular)
}

func parabolicShape(alpha, radius float64, d Degeneracy) Shape {
	return Shape{
		Degeneracy: d,
		Radius:     radius,
		peak:       1,
		eval: func(x float64) float64 {
			u := x / radius
			return math.Pow(1-u*u, alpha)
		},
		inverse: func(ratio float64) float64 {
			if ratio <= 0 {
				return radius
			}
			if ratio >= 1 {
				return 0
			}
			return radius * math.Sqrt(1-math.Pow(ratio, 1/alpha))
		},
	}
}
