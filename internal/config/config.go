package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/forward"
	"github.com/gronchi/reflectometry-analysis/internal/integrators"
	"github.com/gronchi/reflectometry-analysis/internal/plasma"
	"github.com/gronchi/reflectometry-analysis/internal/probe"
	"github.com/gronchi/reflectometry-analysis/internal/profile"
	"github.com/gronchi/reflectometry-analysis/internal/roots"
)

const (
	DefaultModel   = "gaussian_hat"
	DefaultDevice  = "tcabr"
	DefaultDataDir = "runs"

	// EnvConfig names a config file used when --config is not given.
	EnvConfig = "REFLECTO_CONFIG"
	// EnvDataDir overrides the run storage directory.
	EnvDataDir = "REFLECTO_DATA"
)

type Config struct {
	Model      string              `yaml:"model"`
	Device     string              `yaml:"device"`
	Geometry   plasma.Geometry     `yaml:"geometry"`
	Sweep      probe.Sweep         `yaml:"sweep"`
	Quadrature integrators.Options `yaml:"quadrature"`
	EdgeGuard  float64             `yaml:"edge_guard"`
	Roots      roots.Options       `yaml:"roots"`
	Solver     fit.Options         `yaml:"solver"`
	// Guess overrides the starting point heuristic when set.
	Guess     []float64       `yaml:"guess,omitempty"`
	Workers   int             `yaml:"workers"`
	Evolution EvolutionConfig `yaml:"evolution"`
	DataDir   string          `yaml:"data_dir"`
}

// EvolutionConfig is the time window (ms) of an evolve run.
type EvolutionConfig struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
	// Tolerance is how far (ms) a stored frame may sit from a step.
	Tolerance float64 `yaml:"tolerance"`
}

func DefaultConfig() *Config {
	solver := fit.DefaultOptions()
	solver.TruncateAtCrossing = true
	return &Config{
		Model:      DefaultModel,
		Device:     DefaultDevice,
		Geometry:   plasma.TCABR,
		Sweep:      probe.TCABRSweep,
		Quadrature: integrators.DefaultOptions(),
		EdgeGuard:  integrators.DefaultEdgeGuard,
		Roots:      roots.DefaultOptions(),
		Solver:     solver,
		Evolution: EvolutionConfig{
			Start:     60,
			End:       100,
			Step:      1,
			Tolerance: 0.5,
		},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads path over a copy of base; keys absent from the file keep
// the values of base.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Guess = append([]float64(nil), c.Guess...)
	return &cp
}

func (c *Config) Validate() error {
	m, err := profile.ByName(c.Model)
	if err != nil {
		return err
	}
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if err := c.Sweep.Validate(); err != nil {
		return err
	}
	if !(c.Quadrature.RelTol > 0) && !(c.Quadrature.AbsTol > 0) {
		return fmt.Errorf("config: quadrature needs a positive rel_tol or abs_tol")
	}
	if c.Quadrature.MaxSubdivisions < 1 {
		return fmt.Errorf("config: quadrature max_subdivisions must be positive, got %d", c.Quadrature.MaxSubdivisions)
	}
	if c.EdgeGuard <= 0 || c.EdgeGuard > 1 {
		return fmt.Errorf("config: edge_guard must be in (0, 1], got %g", c.EdgeGuard)
	}
	if c.Roots.MaxIterations < 1 {
		return fmt.Errorf("config: roots max_iterations must be positive, got %d", c.Roots.MaxIterations)
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if len(c.Guess) > 0 {
		if err := profile.CheckParams(m, c.Guess); err != nil {
			return fmt.Errorf("config: guess: %w", err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	if c.Evolution.Step <= 0 || c.Evolution.End < c.Evolution.Start {
		return fmt.Errorf("config: invalid evolution window [%g, %g) step %g", c.Evolution.Start, c.Evolution.End, c.Evolution.Step)
	}
	return nil
}

// ProfileModel resolves the configured family.
func (c *Config) ProfileModel() (profile.Model, error) {
	return profile.ByName(c.Model)
}

func (c *Config) ForwardOptions(logger *log.Logger) forward.Options {
	return forward.Options{
		Quadrature: c.Quadrature,
		Roots:      c.Roots,
		EdgeGuard:  c.EdgeGuard,
		Workers:    c.Workers,
		Logger:     logger,
	}
}

func (c *Config) FitOptions(logger *log.Logger) fit.Options {
	o := c.Solver
	o.Logger = logger
	return o
}

// NewEngine builds the forward model described by c.
func (c *Config) NewEngine(logger *log.Logger) (*forward.Engine, error) {
	m, err := c.ProfileModel()
	if err != nil {
		return nil, err
	}
	return forward.NewEngine(m, c.Geometry, c.ForwardOptions(logger))
}

// NewDriver builds the fit driver described by c.
func (c *Config) NewDriver(logger *log.Logger) (*fit.Driver, error) {
	e, err := c.NewEngine(logger)
	if err != nil {
		return nil, err
	}
	return fit.NewDriver(e, c.FitOptions(logger))
}
