package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gronchi/reflectometry-analysis/internal/config"
	"github.com/gronchi/reflectometry-analysis/internal/storage"
)

var (
	dataDir    string
	configFile string
	envFile    string
	device     string
	preset     string
	modelName  string
	workers    int
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reflecto",
		Short:         "plasma density profiles from microwave reflectometry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(envFiles()...)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", "", "run storage directory (default $"+config.EnvDataDir+" or config)")
	pf.StringVar(&configFile, "config", "", "config file path (yaml, default $"+config.EnvConfig+")")
	pf.StringVar(&envFile, "env", "", "environment file (default .env)")
	pf.StringVar(&device, "device", config.DefaultDevice, "device for presets")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVarP(&modelName, "model", "m", "", "profile model")
	pf.IntVar(&workers, "workers", 0, "forward model workers (0 = all CPUs)")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json, logfmt)")

	rootCmd.AddCommand(
		fitCmd(),
		predictCmd(),
		evolveCmd(),
		synthCmd(),
		delaysCmd(),
		listCmd(),
		showCmd(),
		plotCmd(),
		exportCSVCmd(),
		exportJSONCmd(),
		exportXLSXCmd(),
		presetsCmd(),
		modelsCmd(),
		initConfigCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "reflecto",
	}
	switch strings.ToLower(logFormat) {
	case "text", "":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}
	return log.NewWithOptions(os.Stderr, opts), nil
}

// loadConfig applies defaults, then the preset, then the config file, then
// flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(device, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, device, config.ListPresets(device))
		}
	}

	if path := config.ConfigPath(configFile); path != "" {
		loaded, err := config.LoadOnto(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = modelName
		if len(cfg.Guess) > 0 && !flags.Changed("guess") {
			cfg.Guess = nil
		}
	}
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	st := storage.New(cfg.ResolveDataDir(dataDir))
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// storeOnly resolves the storage directory for commands that read runs.
func storeOnly() (*storage.Store, error) {
	cfg := config.DefaultConfig()
	if path := config.ConfigPath(configFile); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return storage.New(cfg.ResolveDataDir(dataDir)), nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
