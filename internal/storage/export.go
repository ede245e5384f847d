package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
)

// ExportData is the self-contained JSON form of a run.
type ExportData struct {
	Run     RunMetadata       `json:"run"`
	Samples []Sample          `json:"samples,omitempty"`
	Points  []evolution.Point `json:"points,omitempty"`
}

// Export collects a stored run with its rows.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{Run: *meta}
	switch meta.Kind {
	case KindEvolution:
		data.Points, err = s.LoadPoints(runID)
	default:
		data.Samples, err = s.LoadSamples(runID)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the rows of data with a header line.
func ExportCSV(w io.Writer, data *ExportData) error {
	cw := csv.NewWriter(w)
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	if data.Run.Kind == KindEvolution {
		if err := cw.Write([]string{"time", "n_max", "sigma", "residual_std"}); err != nil {
			return err
		}
		for _, p := range data.Points {
			if err := cw.Write([]string{format(p.Time), format(p.PeakDensity), format(p.Uncertainty), format(p.ResidualStd)}); err != nil {
				return err
			}
		}
	} else {
		if err := cw.Write([]string{"frequency", "measured", "predicted", "residual"}); err != nil {
			return err
		}
		for _, s := range data.Samples {
			if err := cw.Write([]string{format(s.Frequency), format(s.Measured), format(s.Predicted), format(s.Residual)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
