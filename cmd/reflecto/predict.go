package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/gronchi/reflectometry-analysis/internal/config"
	"github.com/gronchi/reflectometry-analysis/internal/probe"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/viz"
)

// axisFlags selects probe frequencies: the configured sweep axis or an
// even grid.
type axisFlags struct {
	probeAxis bool
	from, to  float64
	n         int
}

func (a *axisFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.probeAxis, "probe-axis", false, "use the K/Ka axis of the configured sweep")
	cmd.Flags().Float64Var(&a.from, "from", 18e9, "first probe frequency (Hz)")
	cmd.Flags().Float64Var(&a.to, "to", 40e9, "last probe frequency (Hz)")
	cmd.Flags().IntVar(&a.n, "n", 45, "number of probe frequencies")
}

func (a *axisFlags) frequencies(cfg *config.Config) ([]float64, error) {
	if a.probeAxis {
		ax, err := probe.NewAxis(cfg.Sweep)
		if err != nil {
			return nil, err
		}
		return ax.Frequencies, nil
	}
	if a.n < 1 || !(a.from > 0) || a.to < a.from {
		return nil, fmt.Errorf("invalid frequency grid %g..%g Hz with %d points", a.from, a.to, a.n)
	}
	if a.n == 1 {
		return []float64{a.from}, nil
	}
	freqs := make([]float64, a.n)
	floats.Span(freqs, a.from, a.to)
	return freqs, nil
}

func predictCmd() *cobra.Command {
	var (
		params []float64
		axis   axisFlags
		trace  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "compute group delays of a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			freqs, err := axis.frequencies(cfg)
			if err != nil {
				return err
			}
			engine, err := cfg.NewEngine(logger)
			if err != nil {
				return err
			}
			p := profile.Params(params)

			w := newTable()
			if trace {
				traces, err := engine.Trace(cmd.Context(), freqs, p)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "FREQ (GHz)\tDELAY (ns)\tBRANCH\tRATIO\tCUTOFF (m)")
				for _, tr := range traces {
					fmt.Fprintf(w, "%.3f\t%.4f\t%s\t%.4f\t%.4f\n",
						tr.Frequency/1e9, tr.Delay*1e9, tr.Branch, tr.Ratio, tr.TurningPoint)
				}
				return w.Flush()
			}

			delays, err := engine.Predict(cmd.Context(), freqs, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "FREQ (GHz)\tDELAY (ns)")
			for i := range freqs {
				fmt.Fprintf(w, "%.3f\t%.4f\n", freqs[i]/1e9, delays[i]*1e9)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(viz.PlotDelays(freqs, delays, nil, 70, 12))
			return nil
		},
	}

	cmd.Flags().Float64SliceVarP(&params, "params", "p", nil, "profile parameters, n0 first")
	cmd.Flags().BoolVar(&trace, "trace", false, "show branch, density ratio and cutoff of every sample")
	axis.register(cmd)
	_ = cmd.MarkFlagRequired("params")
	return cmd
}
