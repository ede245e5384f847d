package storage

import (
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
)

const (
	summarySheet = "Summary"
	samplesSheet = "Samples"
	pointsSheet  = "Evolution"
)

// WriteXLSX saves a run as a workbook: a summary sheet plus one sheet of
// rows.
func WriteXLSX(path string, data *ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	run := data.Run
	summary := [][]any{
		{"id", run.ID},
		{"kind", run.Kind},
		{"model", run.Model},
		{"device", run.Device},
		{"timestamp", run.Timestamp.Format("2006-01-02 15:04:05")},
		{"minor_radius", run.Geometry.MinorRadius},
		{"wall_radius", run.Geometry.WallRadius},
	}
	if run.Kind == KindFit {
		summary = append(summary,
			[]any{"peak_density", run.PeakDensity},
			[]any{"peak_uncertainty", run.PeakUncertainty},
			[]any{"residual_std", run.ResidualStd},
			[]any{"iterations", run.Iterations},
			[]any{"used", run.Used},
		)
		for i, name := range run.ParamNames {
			row := []any{name, run.Params[i]}
			if i < len(run.ParamErrors) {
				row = append(row, run.ParamErrors[i])
			}
			summary = append(summary, row)
		}
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	if run.Kind == KindEvolution {
		rows := [][]any{{"time", "n_max", "sigma", "residual_std"}}
		for _, p := range data.Points {
			rows = append(rows, []any{p.Time, p.PeakDensity, p.Uncertainty, p.ResidualStd})
		}
		if _, err := f.NewSheet(pointsSheet); err != nil {
			return err
		}
		if err := writeRows(f, pointsSheet, rows); err != nil {
			return err
		}
	} else {
		rows := [][]any{{"frequency", "measured", "predicted", "residual"}}
		for _, s := range data.Samples {
			rows = append(rows, []any{s.Frequency, s.Measured, s.Predicted, s.Residual})
		}
		if _, err := f.NewSheet(samplesSheet); err != nil {
			return err
		}
		if err := writeRows(f, samplesSheet, rows); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// XLSXSink collects evolution points and writes them as a workbook on
// Close.
type XLSXSink struct {
	path   string
	model  string
	device string

	mu     sync.Mutex
	points []evolution.Point
}

func NewXLSXSink(path, model, device string) *XLSXSink {
	return &XLSXSink{path: path, model: model, device: device}
}

func (s *XLSXSink) Record(p evolution.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
	return nil
}

func (s *XLSXSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := &ExportData{
		Run:    RunMetadata{Kind: KindEvolution, Model: s.model, Device: s.device},
		Points: s.points,
	}
	if err := WriteXLSX(s.path, data); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
