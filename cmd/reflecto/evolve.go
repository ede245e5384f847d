package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gronchi/reflectometry-analysis/internal/config"
	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/storage"
	"github.com/gronchi/reflectometry-analysis/internal/viz"
)

// windowFlags override the configured evolution window.
type windowFlags struct {
	start, end, step float64
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&w.start, "start", 0, "first time (ms), default from config")
	cmd.Flags().Float64Var(&w.end, "end", 0, "end time (ms, exclusive), default from config")
	cmd.Flags().Float64Var(&w.step, "step", 0, "time step (ms), default from config")
}

func (w *windowFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("start") {
		cfg.Evolution.Start = w.start
	}
	if cmd.Flags().Changed("end") {
		cfg.Evolution.End = w.end
	}
	if cmd.Flags().Changed("step") {
		cfg.Evolution.Step = w.step
	}
}

// synthFlags describe a synthetic source: a fixed profile whose central
// density changes linearly by Ramp over the window, plus noise.
type synthFlags struct {
	params []float64
	ramp   float64
	noise  float64
	seed   int64
	axis   axisFlags
}

func (s *synthFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVarP(&s.params, "params", "p", nil, "profile parameters at the window start, n0 first")
	cmd.Flags().Float64Var(&s.ramp, "ramp", 0.3, "relative change of n0 across the window")
	cmd.Flags().Float64Var(&s.noise, "noise", 5e-12, "delay noise standard deviation (s)")
	cmd.Flags().Int64Var(&s.seed, "seed", 1, "noise seed")
	s.axis.register(cmd)
}

func (s *synthFlags) source(cfg *config.Config, e *forward.Engine) (*evolution.SyntheticSource, error) {
	if err := profile.CheckParams(e.Model(), s.params); err != nil {
		return nil, err
	}
	freqs, err := s.axis.frequencies(cfg)
	if err != nil {
		return nil, err
	}
	base := profile.Params(s.params).Clone()
	t0, span := cfg.Evolution.Start, cfg.Evolution.End-cfg.Evolution.Start
	params := func(t float64) profile.Params {
		p := base.Clone()
		if span > 0 {
			p[0] *= 1 + s.ramp*(t-t0)/span
		}
		return p
	}
	return evolution.NewSyntheticSource(e, freqs, params, s.noise, s.seed), nil
}

func evolveCmd() *cobra.Command {
	var (
		input    string
		tsvPath  string
		xlsxPath string
		save     bool
		monitor  bool
		window   windowFlags
		synth    synthFlags
	)

	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "fit every frame of a time window and follow the peak density",
		Long: "Fits each time step of the window to the frame of --input, or to a synthetic\n" +
			"measurement when --params is given. Frames that do not converge are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			window.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			driver, err := cfg.NewDriver(logger)
			if err != nil {
				return err
			}

			var src evolution.Source
			switch {
			case input != "":
				src, err = evolution.LoadCSV(input, cfg.Evolution.Tolerance)
			case len(synth.params) > 0:
				src, err = synth.source(cfg, driver.Engine())
			default:
				err = fmt.Errorf("either --input or --params is required")
			}
			if err != nil {
				return err
			}

			mem := &evolution.MemorySink{}
			sinks := evolution.MultiSink{mem}
			if tsvPath != "" {
				f, err := os.Create(tsvPath)
				if err != nil {
					return err
				}
				sinks = append(sinks, evolution.NewTSVSink(f))
			}
			if xlsxPath != "" {
				sinks = append(sinks, storage.NewXLSXSink(xlsxPath, cfg.Model, cfg.Device))
			}

			var sum evolution.Summary
			if monitor {
				sum, err = runMonitored(cmd.Context(), cfg, driver, src, sinks)
			} else {
				sum, err = evolution.NewDriver(driver, src, sinks, logger).Run(cmd.Context(), cfg.Evolution.Start, cfg.Evolution.End, cfg.Evolution.Step)
			}
			if cerr := sinks.Close(); cerr != nil && err == nil {
				err = cerr
			}
			if isCanceled(err) {
				logger.Warn("run interrupted", "recorded", sum.Recorded)
			} else if err != nil {
				return err
			}

			points := mem.Points()
			if !monitor {
				fmt.Println(viz.RenderSummary(sum))
				if len(points) > 1 {
					fmt.Println()
					fmt.Println(viz.PlotEvolution(points, 70, 12))
				}
			}
			if st, serr := evolution.Summarize(points); serr == nil {
				fmt.Printf("n_max mean %.4g, std %.3g, range [%.4g, %.4g] m^-3\n", st.Mean, st.StdDev, st.Min, st.Max)
			}

			if save && len(points) > 0 {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				id, err := store.SaveEvolution(cfg.Model, cfg.Device, cfg.Geometry, points, sum)
				if err != nil {
					return err
				}
				fmt.Printf("run id: %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "measurement csv (time, frequency, delay)")
	cmd.Flags().StringVar(&tsvPath, "tsv", "", "write time, n_max and sigma as tab separated values")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the evolution to an xlsx workbook")
	cmd.Flags().BoolVar(&save, "save", false, "store the evolution as a run")
	cmd.Flags().BoolVar(&monitor, "monitor", false, "follow the run in a live terminal view")
	window.register(cmd)
	synth.register(cmd)
	return cmd
}

// runMonitored runs the evolution while a Bubble Tea monitor follows it.
// Quitting the monitor cancels the run.
func runMonitored(ctx context.Context, cfg *config.Config, f evolution.Fitter, src evolution.Source, sink evolution.MultiSink) (evolution.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(viz.NewMonitor(cfg.Model, cfg.Evolution.Start, cfg.Evolution.End, cancel))
	sink = append(sink, viz.NewMonitorSink(program))

	// The monitor owns the terminal; warnings go nowhere while it runs.
	quiet := log.New(io.Discard)

	type outcome struct {
		sum evolution.Summary
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sum, err := evolution.NewDriver(f, src, sink, quiet).Run(ctx, cfg.Evolution.Start, cfg.Evolution.End, cfg.Evolution.Step)
		program.Send(viz.DoneMsg{Summary: sum, Err: err})
		done <- outcome{sum, err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return evolution.Summary{}, err
	}
	cancel()
	out := <-done
	fmt.Println(viz.RenderSummary(out.sum))
	return out.sum, out.err
}
