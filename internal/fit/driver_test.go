package fit_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/integrators"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

func sweep(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func preciseEngine(m profile.Model) *forward.Engine {
	opts := forward.DefaultOptions()
	opts.Quadrature = integrators.Options{RelTol: 1e-9, MaxSubdivisions: 200}
	e, err := forward.NewEngine(m, plasma.TCABR, opts)
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		engine *forward.Engine
		driver *fit.Driver
		freqs  []float64
		truth  profile.Params
		delays []float64
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = preciseEngine(profile.Parabolic{})

		var err error
		driver, err = fit.NewDriver(engine, fit.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		freqs = sweep(18e9, 34e9, 24)
		truth = profile.Params{2.5e19, 1.3}
		delays, err = engine.Predict(ctx, freqs, truth)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("noise-free round trip", func() {
		a := plasma.TCABR.MinorRadius

		DescribeTable("recovers the parameters within 1%",
			func(m profile.Model, truth profile.Params) {
				e := preciseEngine(m)
				opts := fit.DefaultOptions()
				opts.TruncateAtCrossing = false
				d, err := fit.NewDriver(e, opts)
				Expect(err).NotTo(HaveOccurred())

				measured, err := e.Predict(ctx, freqs, truth)
				Expect(err).NotTo(HaveOccurred())

				guess := truth.Clone()
				for i := range guess {
					if i%2 == 0 {
						guess[i] *= 1.02
					} else {
						guess[i] *= 0.98
					}
				}

				res, err := d.Fit(ctx, freqs, measured, guess)
				Expect(err).NotTo(HaveOccurred())

				Expect(res.Used).To(Equal(len(freqs)))
				for i := range truth {
					Expect(math.Abs(res.Params[i])).To(BeNumerically("~", math.Abs(truth[i]), 0.01*math.Abs(truth[i])))
				}
			},
			Entry("parabolic", profile.Parabolic{}, profile.Params{2.5e19, 1.3}),
			Entry("gaussian hat", profile.GaussianHat{}, profile.Params{1.5e19, 1.1, 0.45, a / 4.8}),
			Entry("double gaussian", profile.DoubleGaussian{}, profile.Params{1.5e19, 0.45, a / 2, a / 4.8}),
		)

		It("fits the parabolic sweep to machine residuals", func() {
			res, err := driver.Fit(ctx, freqs, delays, profile.Params{truth[0] * 1.05, truth[1] * 0.95})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Used).To(Equal(len(freqs)))
			for _, r := range res.Residuals {
				Expect(math.Abs(r)).To(BeNumerically("<", 1e-12))
			}
		})

		It("reports derived quantities", func() {
			res, err := driver.Fit(ctx, freqs, delays, profile.Params{2.4e19, 1.2})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.PeakDensity()).To(BeNumerically("~", res.Params[0], 1))
			Expect(res.PeakUncertainty()).To(BeNumerically(">=", 0))
			Expect(res.ResidualStdDev()).To(BeNumerically("<", 1e-12))
			Expect(res.ParamErrors()).To(HaveLen(2))
			Expect(res.Covariance.SymmetricDim()).To(Equal(2))
			Expect(res.Named()).To(HaveKeyWithValue("alpha", res.Params[1]))
		})

		It("starts from the heuristic guess", func() {
			res, err := driver.FitAuto(ctx, freqs, delays)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Params[0]).To(BeNumerically("~", truth[0], 0.01*truth[0]))
		})

		It("does not modify its inputs", func() {
			f := append([]float64(nil), freqs...)
			d := append([]float64(nil), delays...)
			guess := profile.Params{2.6e19, 1.2}
			g := guess.Clone()

			_, err := driver.Fit(ctx, freqs, delays, guess)
			Expect(err).NotTo(HaveOccurred())

			Expect(freqs).To(Equal(f))
			Expect(delays).To(Equal(d))
			Expect(guess).To(Equal(g))
		})
	})

	Describe("non-convergence", func() {
		It("reports inconsistent data as not converged", func() {
			bad := make([]float64, len(freqs))
			for i := range bad {
				bad[i] = -3e-9
			}

			res, err := driver.FitAuto(ctx, freqs, bad)
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(fit.ErrNotConverged))

			var ce *fit.ConvergenceError
			Expect(err).To(BeAssignableToTypeOf(ce))
		})

		It("stops at the iteration budget", func() {
			opts := fit.DefaultOptions()
			opts.MaxIterations = 1
			d, err := fit.NewDriver(engine, opts)
			Expect(err).NotTo(HaveOccurred())

			_, err = d.Fit(ctx, freqs, delays, profile.Params{6e19, 3})
			Expect(err).To(MatchError(fit.ErrNotConverged))
			Expect(err.Error()).To(ContainSubstring("iteration budget"))
		})

		It("honours cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := driver.Fit(cctx, freqs, delays, profile.Params{2.4e19, 1.2})
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("input validation", func() {
		DescribeTable("rejects",
			func(f, d []float64, guess profile.Params) {
				_, err := driver.Fit(ctx, f, d, guess)
				Expect(err).To(MatchError(fit.ErrInvalidInput))
			},
			Entry("empty input", nil, nil, profile.Params{1e19, 1}),
			Entry("length mismatch", []float64{20e9, 21e9, 22e9}, []float64{1e-9, 1e-9}, profile.Params{1e19, 1}),
			Entry("too few samples", []float64{20e9, 21e9}, []float64{1e-9, 1e-9}, profile.Params{1e19, 1}),
			Entry("nan delay", []float64{20e9, 21e9, 22e9}, []float64{1e-9, math.NaN(), 1e-9}, profile.Params{1e19, 1}),
			Entry("negative frequency", []float64{20e9, -21e9, 22e9}, []float64{1e-9, 1e-9, 1e-9}, profile.Params{1e19, 1}),
			Entry("wrong guess length", []float64{20e9, 21e9, 22e9}, []float64{1e-9, 1e-9, 1e-9}, profile.Params{1e19, 1, 0.4}),
			Entry("infinite guess", []float64{20e9, 21e9, 22e9}, []float64{1e-9, 1e-9, 1e-9}, profile.Params{math.Inf(1), 1}),
		)

		It("rejects a truncation that leaves too few samples", func() {
			opts := fit.DefaultOptions()
			opts.TruncateAtCrossing = true
			d, err := fit.NewDriver(engine, opts)
			Expect(err).NotTo(HaveOccurred())

			_, err = d.Fit(ctx, []float64{20e9, 21e9, 22e9, 23e9}, []float64{1e-9, 1e-9, 3e-9, 3e-9}, profile.Params{1e19, 1})
			Expect(err).To(MatchError(fit.ErrInvalidInput))
		})

		It("rejects invalid options", func() {
			opts := fit.DefaultOptions()
			opts.DiffStep = 0
			_, err := fit.NewDriver(engine, opts)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("truncation at the crossing", func() {
		It("fits only the samples before the first crossing delay", func() {
			opts := fit.DefaultOptions()
			opts.TruncateAtCrossing = true
			d, err := fit.NewDriver(engine, opts)
			Expect(err).NotTo(HaveOccurred())

			tail := append(append([]float64(nil), delays...), 4e-9, 4e-9)
			f := append(append([]float64(nil), freqs...), 41e9, 42e9)

			res, err := d.Fit(ctx, f, tail, profile.Params{2.4e19, 1.2})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Used).To(Equal(len(freqs)))
			Expect(res.Residuals).To(HaveLen(len(freqs)))
		})
	})
})
