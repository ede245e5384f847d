package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gronchi/reflectometry-analysis/internal/config"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/report"
	"github.com/gronchi/reflectometry-analysis/internal/storage"
	"github.com/gronchi/reflectometry-analysis/internal/viz"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeOnly()
			if err != nil {
				return err
			}
			runs, err := st.List()
			if err != nil {
				return err
			}
			fmt.Println(viz.RenderRunList(runs))
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeOnly()
			if err != nil {
				return err
			}
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Println(viz.RenderRun(meta))
			return nil
		},
	}
}

func plotCmd() *cobra.Command {
	var pngPath string

	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeOnly()
			if err != nil {
				return err
			}
			data, err := st.Export(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run: %s\n", data.Run.ID)
			fmt.Printf("model: %s\n\n", data.Run.Model)

			if data.Run.Kind == storage.KindEvolution {
				if len(data.Points) == 0 {
					return fmt.Errorf("no data to plot")
				}
				fmt.Println(viz.PlotEvolution(data.Points, 70, 14))
				return nil
			}

			if len(data.Samples) == 0 {
				return fmt.Errorf("no data to plot")
			}
			n := len(data.Samples)
			freqs := make([]float64, n)
			measured := make([]float64, n)
			predicted := make([]float64, n)
			for i, s := range data.Samples {
				freqs[i], measured[i], predicted[i] = s.Frequency, s.Measured, s.Predicted
			}
			fmt.Println(viz.PlotDelays(freqs, measured, predicted, 70, 14))

			if pngPath != "" {
				fig := report.Figure{
					Title:            fmt.Sprintf("%s fit, n_max = %.3g m^-3", data.Run.Model, data.Run.PeakDensity),
					Label:            data.Run.Model,
					Frequencies:      freqs,
					Measured:         measured,
					Used:             n,
					CurveFrequencies: freqs,
					Curve:            predicted,
					Sigma:            data.Run.ResidualStd,
					Z:                1,
				}
				if err := fig.Save(pngPath, 0, 0); err != nil {
					return err
				}
				fmt.Printf("figure: %s\n", pngPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "also write a fit figure (png, svg or pdf)")
	return cmd
}

func exportCSVCmd() *cobra.Command {
	return exportCmd("export-csv", "export run rows to CSV", storage.ExportCSV)
}

func exportJSONCmd() *cobra.Command {
	return exportCmd("export-json", "export a run to JSON", storage.ExportJSON)
}

func exportCmd(use, short string, write func(io.Writer, *storage.ExportData) error) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   use + " [run_id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeOnly()
			if err != nil {
				return err
			}
			data, err := st.Export(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return write(os.Stdout, data)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := write(f, data); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "exported %s to %s\n", data.Run.ID, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-xlsx [run_id]",
		Short: "export a run to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeOnly()
			if err != nil {
				return err
			}
			data, err := st.Export(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = data.Run.ID + ".xlsx"
			}
			if err := storage.WriteXLSX(out, data); err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", data.Run.ID, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook (default <run_id>.xlsx)")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [device]",
		Short: "list available presets for a device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices := config.ListDevices()
			if len(args) == 1 {
				devices = args
			}
			for _, d := range devices {
				presets := config.ListPresets(d)
				if len(presets) == 0 {
					fmt.Printf("no presets for device: %s\n", d)
					continue
				}
				fmt.Printf("presets for %s:\n", d)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "list profile models and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := newTable()
			fmt.Fprintln(w, "MODEL\tPARAMETERS\tDEFAULT SHAPE")
			for _, name := range profile.Names() {
				m, err := profile.ByName(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%v\t%v\n", name, m.ParamNames(), m.DefaultShape(config.DefaultConfig().Geometry.MinorRadius))
			}
			return w.Flush()
		},
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
}
