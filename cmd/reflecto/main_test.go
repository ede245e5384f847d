package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronchi/reflectometry-analysis/internal/config"
)

func resetFlags() {
	dataDir, configFile, envFile = "", "", ""
	device, preset, modelName = config.DefaultDevice, "", ""
	workers = 0
	logLevel, logFormat = "warn", "text"
}

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&preset, "preset", "", "")
	cmd.Flags().StringVar(&device, "device", config.DefaultDevice, "")
	cmd.Flags().StringVar(&configFile, "config", "", "")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "")
	cmd.Flags().IntVar(&workers, "workers", 0, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigPrecedence(t *testing.T) {
	resetFlags()
	t.Setenv(config.EnvConfig, "")

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: double_gaussian\nworkers: 2\n"), 0644))

	cfg, err := loadConfig(testCommand(t, "--preset", "parabolic", "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "double_gaussian", cfg.Model, "config file beats preset")
	assert.Equal(t, 2, cfg.Workers)

	cfg, err = loadConfig(testCommand(t, "--preset", "parabolic", "--config", path, "--model", "gaussian_hat", "--workers", "4"))
	require.NoError(t, err)
	assert.Equal(t, "gaussian_hat", cfg.Model, "flags beat config file")
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	resetFlags()
	_, err := loadConfig(testCommand(t, "--preset", "nope"))
	assert.Error(t, err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	resetFlags()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: parabolic\n"), 0644))
	t.Setenv(config.EnvConfig, path)

	cfg, err := loadConfig(testCommand(t))
	require.NoError(t, err)
	assert.Equal(t, "parabolic", cfg.Model)
}

func TestNewLogger(t *testing.T) {
	resetFlags()
	for _, f := range []string{"text", "json", "logfmt"} {
		logFormat = f
		_, err := newLogger()
		assert.NoError(t, err, f)
	}
	logFormat = "xml"
	_, err := newLogger()
	assert.Error(t, err)

	logFormat, logLevel = "text", "loud"
	_, err = newLogger()
	assert.Error(t, err)
}

func TestAxisFrequencies(t *testing.T) {
	cfg := config.DefaultConfig()

	a := axisFlags{from: 18e9, to: 20e9, n: 3}
	freqs, err := a.frequencies(cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{18e9, 19e9, 20e9}, freqs)

	a = axisFlags{probeAxis: true}
	freqs, err = a.frequencies(cfg)
	require.NoError(t, err)
	assert.Greater(t, len(freqs), 337)

	a = axisFlags{from: 20e9, to: 18e9, n: 3}
	_, err = a.frequencies(cfg)
	assert.Error(t, err)
}
