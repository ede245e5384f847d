package config

import (
	"sort"

	"github.com/gronchi/reflectometry-analysis/internal/integrators"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
)

// Presets are keyed by device, then by preset name.
var Presets = map[string]map[string]*Config{
	"tcabr": {
		"parabolic":       withModel(DefaultConfig(), "parabolic"),
		"gaussian_hat":    withModel(DefaultConfig(), "gaussian_hat"),
		"double_gaussian": withModel(DefaultConfig(), "double_gaussian"),
		"quick": func() *Config {
			c := DefaultConfig()
			c.Quadrature = integrators.Options{RelTol: 1e-2, MaxSubdivisions: 16}
			c.Solver.MaxIterations = 50
			return c
		}(),
		"precise": func() *Config {
			c := DefaultConfig()
			c.Quadrature = integrators.Options{RelTol: 1e-6, MaxSubdivisions: 256}
			c.Solver.FTol = 1e-10
			c.Solver.XTol = 1e-10
			c.Solver.MaxIterations = 500
			return c
		}(),
	},
	"tcabr_wall": {
		// Antenna mounted at the outer limiter.
		"gaussian_hat": func() *Config {
			c := DefaultConfig()
			c.Device = "tcabr_wall"
			c.Geometry = plasma.Geometry{MinorRadius: 0.18, WallRadius: 0.20}
			return c
		}(),
	},
}

func withModel(c *Config, model string) *Config {
	c.Model = model
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(device, preset string) *Config {
	devicePresets, ok := Presets[device]
	if !ok {
		return nil
	}
	cfg, ok := devicePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(device string) []string {
	devicePresets, ok := Presets[device]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(devicePresets))
	for name := range devicePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListDevices() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
