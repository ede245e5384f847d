package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/report"
	"github.com/gronchi/reflectometry-analysis/internal/viz"
)

func fitCmd() *cobra.Command {
	var (
		input     string
		at        float64
		tolerance float64
		guess     []float64
		save      bool
		pngPath   string
		showPlot  bool
		scan      []float64
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "fit a density profile to one group delay measurement",
		Long: "Fits the configured profile model to the frame of --input closest to --time.\n" +
			"The input holds rows of time (ms), probe frequency (Hz) and group delay (s).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("guess") {
				cfg.Guess = guess
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}

			src, err := evolution.LoadCSV(input, tolerance)
			if err != nil {
				return err
			}
			times := src.Times()
			if len(times) == 0 {
				return fmt.Errorf("%s: no samples", input)
			}
			if !cmd.Flags().Changed("time") {
				at = times[0]
			}
			frame, err := src.Frame(ctx, at)
			if err != nil {
				return err
			}

			driver, err := cfg.NewDriver(logger)
			if err != nil {
				return err
			}

			logger.Info("fitting", "model", cfg.Model, "time", frame.Time, "samples", len(frame.Frequencies))
			var res *fit.Result
			switch {
			case len(cfg.Guess) > 0:
				res, err = driver.Fit(ctx, frame.Frequencies, frame.Delays, cfg.Guess)
			case len(scan) > 0:
				res, err = driver.FitScan(ctx, frame.Frequencies, frame.Delays, scan)
			default:
				res, err = driver.FitAuto(ctx, frame.Frequencies, frame.Delays)
			}
			var conv *fit.ConvergenceError
			if errors.As(err, &conv) {
				return fmt.Errorf("t=%.3f ms: %w (after %d iterations, cost %.3g)", frame.Time, err, conv.Iterations, conv.Cost)
			}
			if err != nil {
				return err
			}

			fmt.Println(viz.RenderFit(res))
			if showPlot {
				fmt.Println(viz.PlotDelays(res.Frequencies, res.Measured, res.Predicted, 70, 14))
			}

			if pngPath != "" {
				fig, err := report.FromResult(ctx, driver.Engine(), res, frame.Frequencies, frame.Delays, 200)
				if err != nil {
					return err
				}
				fig.Title = fmt.Sprintf("t = %.2f ms, %s", frame.Time, fig.Title)
				if err := fig.Save(pngPath, 0, 0); err != nil {
					return err
				}
				fmt.Printf("figure: %s\n", pngPath)
			}

			if save {
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				id, err := st.SaveFit(res, cfg.Device)
				if err != nil {
					return err
				}
				fmt.Printf("run id: %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "measurement csv (time, frequency, delay)")
	cmd.Flags().Float64VarP(&at, "time", "t", 0, "frame time (ms), default the first frame")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0.5, "largest distance (ms) to the requested frame")
	cmd.Flags().Float64SliceVar(&guess, "guess", nil, "initial parameters, overriding the heuristic guess")
	cmd.Flags().Float64SliceVar(&scan, "scan", nil, "scan these factors around the heuristic guess before fitting (e.g. 0.7,1,1.4)")
	cmd.Flags().BoolVar(&save, "save", false, "store the result as a run")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a fit figure (png, svg or pdf)")
	cmd.Flags().BoolVar(&showPlot, "plot", true, "plot measured and fitted delays")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
