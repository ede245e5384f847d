package fit_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
)

var _ = Describe("Scan", func() {
	var (
		ctx    context.Context
		driver *fit.Driver
		freqs  []float64
		truth  profile.Params
		delays []float64
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine := preciseEngine(profile.Parabolic{})

		var err error
		driver, err = fit.NewDriver(engine, fit.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		freqs = sweep(18e9, 34e9, 24)
		truth = profile.Params{2.5e19, 1.3}
		delays, err = engine.Predict(ctx, freqs, truth)
		Expect(err).NotTo(HaveOccurred())
	})

	It("finds the grid point closest to the data", func() {
		grid := [][]float64{{2e19, 2.5e19, 3e19}, {0.8, 1.3, 2}}
		best, cost, err := driver.Scan(ctx, freqs, delays, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(truth))
		Expect(cost).To(BeNumerically("<", 1e-30))
	})

	It("spans factors around a guess", func() {
		grid := fit.ScanGrid(profile.Params{1e19, 2}, []float64{0.5, 1})
		Expect(grid).To(Equal([][]float64{{0.5e19, 1e19}, {1, 2}}))
	})

	It("rejects a grid of the wrong shape", func() {
		_, _, err := driver.Scan(ctx, freqs, delays, [][]float64{{1e19}})
		Expect(err).To(MatchError(fit.ErrInvalidInput))

		_, _, err = driver.Scan(ctx, freqs, delays, [][]float64{{1e19}, {}})
		Expect(err).To(MatchError(fit.ErrInvalidInput))
	})

	It("fits from the best scanned point", func() {
		res, err := driver.FitScan(ctx, freqs, delays, fit.DefaultScanFactors)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params[0]).To(BeNumerically("~", truth[0], 0.01*truth[0]))
		Expect(res.Params[1]).To(BeNumerically("~", truth[1], 0.01*truth[1]))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := driver.Scan(cctx, freqs, delays, fit.ScanGrid(truth, fit.DefaultScanFactors))
		Expect(err).To(MatchError(context.Canceled))
	})
})
