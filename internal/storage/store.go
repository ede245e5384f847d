package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
)

const (
	KindFit       = "fit"
	KindEvolution = "evolution"

	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	pointsFile   = "points.csv"
)

// ErrRunNotFound indicates no run directory with the given id.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Model     string          `json:"model"`
	Device    string          `json:"device"`
	Geometry  plasma.Geometry `json:"geometry"`
	Timestamp time.Time       `json:"timestamp"`

	ParamNames      []string    `json:"param_names,omitempty"`
	Params          []float64   `json:"params,omitempty"`
	ParamErrors     []float64   `json:"param_errors,omitempty"`
	Covariance      [][]float64 `json:"covariance,omitempty"`
	PeakDensity     float64     `json:"peak_density,omitempty"`
	PeakUncertainty float64     `json:"peak_uncertainty,omitempty"`
	ResidualStd     float64     `json:"residual_std,omitempty"`
	Iterations      int         `json:"iterations,omitempty"`
	Evaluations     int         `json:"evaluations,omitempty"`
	Used            int         `json:"used,omitempty"`
	Reason          string      `json:"reason,omitempty"`

	Summary *evolution.Summary `json:"summary,omitempty"`
}

// Sample is one row of a fit run.
type Sample struct {
	Frequency float64 `json:"frequency"`
	Measured  float64 `json:"measured"`
	Predicted float64 `json:"predicted"`
	Residual  float64 `json:"residual"`
}

// FitMetadata flattens a fit result for storage.
func FitMetadata(res *fit.Result, device string) RunMetadata {
	m := len(res.Params)
	cov := make([][]float64, m)
	for i := range cov {
		cov[i] = make([]float64, m)
		for j := range cov[i] {
			cov[i][j] = res.Covariance.At(i, j)
		}
	}
	return RunMetadata{
		Kind:            KindFit,
		Model:           res.Model.Name(),
		Device:          device,
		Geometry:        res.Geometry,
		ParamNames:      res.Model.ParamNames(),
		Params:          append([]float64(nil), res.Params...),
		ParamErrors:     res.ParamErrors(),
		Covariance:      cov,
		PeakDensity:     res.PeakDensity(),
		PeakUncertainty: res.PeakUncertainty(),
		ResidualStd:     res.ResidualStdDev(),
		Iterations:      res.Iterations,
		Evaluations:     res.Evaluations,
		Used:            res.Used,
		Reason:          res.Reason,
	}
}

// FitSamples lists the fitted samples of res.
func FitSamples(res *fit.Result) []Sample {
	out := make([]Sample, len(res.Frequencies))
	for i := range out {
		out[i] = Sample{
			Frequency: res.Frequencies[i],
			Measured:  res.Measured[i],
			Predicted: res.Predicted[i],
			Residual:  res.Residuals[i],
		}
	}
	return out
}

// SaveFit stores a fit result and returns the new run id.
func (s *Store) SaveFit(res *fit.Result, device string) (string, error) {
	meta := FitMetadata(res, device)
	rows := make([][]float64, 0, len(res.Frequencies))
	for _, smp := range FitSamples(res) {
		rows = append(rows, []float64{smp.Frequency, smp.Measured, smp.Predicted, smp.Residual})
	}
	return s.save(&meta, samplesFile, []string{"frequency", "measured", "predicted", "residual"}, rows)
}

// SaveEvolution stores the points of an evolution run.
func (s *Store) SaveEvolution(model, device string, g plasma.Geometry, points []evolution.Point, sum evolution.Summary) (string, error) {
	meta := RunMetadata{
		Kind:     KindEvolution,
		Model:    model,
		Device:   device,
		Geometry: g,
		Summary:  &sum,
	}
	rows := make([][]float64, 0, len(points))
	for _, p := range points {
		rows = append(rows, []float64{p.Time, p.PeakDensity, p.Uncertainty, p.ResidualStd})
	}
	return s.save(&meta, pointsFile, []string{"time", "n_max", "sigma", "residual_std"}, rows)
}

func (s *Store) save(meta *RunMetadata, name string, header []string, rows [][]float64) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, name))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads the samples of a fit run.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	rows, err := s.loadRows(runID, samplesFile, 4)
	if err != nil {
		return nil, err
	}
	out := make([]Sample, len(rows))
	for i, r := range rows {
		out[i] = Sample{Frequency: r[0], Measured: r[1], Predicted: r[2], Residual: r[3]}
	}
	return out, nil
}

// LoadPoints reads the points of an evolution run.
func (s *Store) LoadPoints(runID string) ([]evolution.Point, error) {
	rows, err := s.loadRows(runID, pointsFile, 4)
	if err != nil {
		return nil, err
	}
	out := make([]evolution.Point, len(rows))
	for i, r := range rows {
		out[i] = evolution.Point{Time: r[0], PeakDensity: r[1], Uncertainty: r[2], ResidualStd: r[3]}
	}
	return out, nil
}

func (s *Store) loadRows(runID, name string, width int) ([][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrRunNotFound, runID, name)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = width

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, width)
		for j, field := range record {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
