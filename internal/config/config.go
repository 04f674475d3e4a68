// Package config loads the repository-level configuration file,
// `.restage/config.yaml`. The file supplies defaults for run options the
// caller does not set explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the decoded repository configuration.
type Config struct {
	Core CoreConfig `yaml:"core"`
}

// CoreConfig holds the core section of the configuration file.
type CoreConfig struct {
	// Interactive is the default for the interactive run option when the
	// caller does not pass -interactive.
	Interactive bool `yaml:"interactive"`
	// LogLevel is the default logging level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
	// LogFormat is the default log output format ("text" or "json").
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Core: CoreConfig{
			Interactive: false,
			LogLevel:    "info",
			LogFormat:   "text",
		},
	}
}

// Load reads config.yaml from the given metadata directory. A missing file
// yields the defaults; a file that exists but does not parse is an error.
func Load(metaDir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(metaDir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading repository config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing repository config: %w", err)
	}
	if cfg.Core.LogLevel == "" {
		cfg.Core.LogLevel = "info"
	}
	if cfg.Core.LogFormat == "" {
		cfg.Core.LogFormat = "text"
	}
	return cfg, nil
}
