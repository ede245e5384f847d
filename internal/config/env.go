package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads environment files (default ".env") that exist. Variables
// already set win over the files.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ConfigPath returns flag, or the path named by REFLECTO_CONFIG.
func ConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvConfig)
}

// ResolveDataDir applies flag > REFLECTO_DATA > config file.
func (c *Config) ResolveDataDir(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return env
	}
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir
}
