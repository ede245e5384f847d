package probe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gronchi/reflectometry-analysis/internal/plasma"
)

// Signals holds digitized sweeps of both bands for one instant.
type Signals struct {
	K  [][]float64
	Ka [][]float64
}

// ReadSignals reads one sweep per row: the band name (K or Ka) followed by
// the samples.
func ReadSignals(r io.Reader) (Signals, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out Signals
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Signals{}, fmt.Errorf("read signals: %w", err)
		}
		line++
		if len(rec) < 2 {
			return Signals{}, fmt.Errorf("read signals line %d: no samples", line)
		}

		sweep := make([]float64, len(rec)-1)
		for i, field := range rec[1:] {
			sweep[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Signals{}, fmt.Errorf("read signals line %d: %w", line, err)
			}
		}
		switch strings.ToLower(strings.TrimSpace(rec[0])) {
		case "k":
			out.K = append(out.K, sweep)
		case "ka":
			out.Ka = append(out.Ka, sweep)
		default:
			return Signals{}, fmt.Errorf("read signals line %d: unknown band %q", line, rec[0])
		}
	}
	return out, nil
}

func LoadSignals(path string) (Signals, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signals{}, err
	}
	defer f.Close()
	return ReadSignals(f)
}

// GroupDelay turns plasma and vacuum signals into group delays on the
// probe axis of s.
func GroupDelay(plasmaSig, vacuum Signals, s Sweep, opts BeatOptions, g plasma.Geometry) (Axis, []float64, error) {
	a, err := NewAxis(s)
	if err != nil {
		return Axis{}, nil, err
	}
	beat, err := AxisBeats(plasmaSig.K, plasmaSig.Ka, a, s, opts)
	if err != nil {
		return Axis{}, nil, fmt.Errorf("plasma: %w", err)
	}
	vac, err := AxisBeats(vacuum.K, vacuum.Ka, a, s, opts)
	if err != nil {
		return Axis{}, nil, fmt.Errorf("vacuum: %w", err)
	}
	delays, err := BeatToDelay(beat, vac, a, s, g)
	if err != nil {
		return Axis{}, nil, err
	}
	return a, delays, nil
}
