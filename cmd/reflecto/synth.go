package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/probe"
)

func synthCmd() *cobra.Command {
	var (
		out    string
		window windowFlags
		synth  synthFlags
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "write a synthetic group delay measurement",
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
			engine, err := cfg.NewEngine(logger)
			if err != nil {
				return err
			}
			src, err := synth.source(cfg, engine)
			if err != nil {
				return err
			}
			times, err := evolution.Steps(cfg.Evolution.Start, cfg.Evolution.End, cfg.Evolution.Step)
			if err != nil {
				return err
			}

			frames := make([]evolution.Frame, 0, len(times))
			for _, t := range times {
				f, err := src.Frame(cmd.Context(), t)
				if err != nil {
					return err
				}
				frames = append(frames, f)
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := evolution.WriteCSV(w, frames); err != nil {
				return err
			}
			if out != "" {
				fmt.Printf("wrote %d frames to %s\n", len(frames), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output csv (default stdout)")
	window.register(cmd)
	synth.register(cmd)
	_ = cmd.MarkFlagRequired("params")
	return cmd
}

func delaysCmd() *cobra.Command {
	var (
		plasmaPath string
		vacuumPath string
		out        string
		at         float64
		kMin, kMax float64
		beat       probe.BeatOptions
	)

	cmd := &cobra.Command{
		Use:   "delays",
		Short: "convert digitized sweeps into group delays",
		Long: "Reads plasma and vacuum sweeps (one row per sweep: band, samples...), takes\n" +
			"the beat frequency of every spectrogram window and writes group delays in\n" +
			"the csv layout read by fit and evolve.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			plasmaSig, err := probe.LoadSignals(plasmaPath)
			if err != nil {
				return err
			}
			vacuum, err := probe.LoadSignals(vacuumPath)
			if err != nil {
				return err
			}
			axis, delays, err := probe.GroupDelay(plasmaSig, vacuum, cfg.Sweep, beat, cfg.Geometry)
			if err != nil {
				return err
			}

			// The K band edge is unreliable near the plasma boundary.
			frame := evolution.Frame{Time: at}
			for i, f := range axis.Frequencies {
				if axis.Band(i) == probe.K && (f < kMin || f > kMax) {
					continue
				}
				frame.Frequencies = append(frame.Frequencies, f)
				frame.Delays = append(frame.Delays, delays[i])
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return evolution.WriteCSV(w, []evolution.Frame{frame})
		},
	}

	def := probe.DefaultBeatOptions()
	cmd.Flags().StringVar(&plasmaPath, "plasma", "", "plasma sweeps csv")
	cmd.Flags().StringVar(&vacuumPath, "vacuum", "", "vacuum reference sweeps csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output csv (default stdout)")
	cmd.Flags().Float64VarP(&at, "time", "t", 0, "time (ms) written with the frame")
	cmd.Flags().Float64Var(&kMin, "k-min", 19e9, "lowest K band frequency kept (Hz)")
	cmd.Flags().Float64Var(&kMax, "k-max", 25.3e9, "highest K band frequency kept (Hz)")
	cmd.Flags().IntVar(&beat.PadTo, "pad", def.PadTo, "FFT length")
	cmd.Flags().Float64Var(&beat.MinBeat, "min-beat", def.MinBeat, "lowest beat frequency searched (Hz)")
	cmd.Flags().Float64Var(&beat.MaxBeat, "max-beat", def.MaxBeat, "highest beat frequency searched (Hz)")
	_ = cmd.MarkFlagRequired("plasma")
	_ = cmd.MarkFlagRequired("vacuum")
	return cmd
}
