package fit

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

// Result is a converged fit. It is not modified after Fit returns.
type Result struct {
	Model    profile.Model
	Geometry plasma.Geometry
	Params   profile.Params
	// Covariance of Params, scaled by the residual variance.
	Covariance *mat.SymDense

	// Frequencies, Measured, Predicted and Residuals cover the Used
	// samples that took part in the fit.
	Frequencies []float64
	Measured    []float64
	Predicted   []float64
	Residuals   []float64

	Iterations  int
	Evaluations int
	Cost        float64
	Used        int
	Reason      string
}

func (r *Result) peak(p profile.Params) float64 {
	return p.N0() * r.Model.Bind(p, r.Geometry.MinorRadius).Peak()
}

// PeakDensity is the maximum density of the fitted profile (m⁻³).
func (r *Result) PeakDensity() float64 {
	return r.peak(r.Params)
}

// PeakUncertainty propagates the covariance to PeakDensity, with the
// gradient taken by central differences.
func (r *Result) PeakUncertainty() float64 {
	m := len(r.Params)
	grad := mat.NewVecDense(m, nil)
	for j := 0; j < m; j++ {
		h := 1e-6 * math.Abs(r.Params[j])
		if h == 0 {
			h = 1e-9
		}
		up, down := r.Params.Clone(), r.Params.Clone()
		up[j] += h
		down[j] -= h
		grad.SetVec(j, (r.peak(up)-r.peak(down))/(up[j]-down[j]))
	}
	v := mat.Inner(grad, r.Covariance, grad)
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// ParamErrors returns the one-sigma uncertainty of each parameter.
func (r *Result) ParamErrors() []float64 {
	out := make([]float64, len(r.Params))
	for i := range out {
		out[i] = math.Sqrt(math.Max(r.Covariance.At(i, i), 0))
	}
	return out
}

// ResidualStdDev is the sample standard deviation of the residuals (s).
func (r *Result) ResidualStdDev() float64 {
	sd, err := stats.StandardDeviationSample(stats.Float64Data(r.Residuals))
	if err != nil {
		return math.NaN()
	}
	return sd
}

// Named pairs parameter names with values for reporting.
func (r *Result) Named() map[string]float64 {
	names := r.Model.ParamNames()
	out := make(map[string]float64, len(names))
	for i, n := range names {
		out[n] = r.Params[i]
	}
	return out
}
