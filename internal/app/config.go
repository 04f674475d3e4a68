package app

import "errors"

// Config holds everything an App instance needs for one invocation.
type Config struct {
	// RootDir is the repository root directory.
	RootDir string
	// Target is the stage file or directory being reproduced. Empty only
	// when AllPipelines is set.
	Target string

	Recursive    bool
	Pipeline     bool
	AllPipelines bool

	Dry              bool
	Force            bool
	Interactive      bool
	Downstream       bool
	SingleItem       bool
	IgnoreBuildCache bool

	// InteractiveSet records whether the caller set Interactive explicitly;
	// when false, the repository config default applies.
	InteractiveSet bool

	// LogFormat and LogLevel override the repository config when non-empty.
	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootDir == "" {
		return nil, errors.New("RootDir is a required configuration field and cannot be empty")
	}
	if cfg.Target == "" && !cfg.AllPipelines {
		return nil, errors.New("a target is required unless all-pipelines mode is set")
	}
	return &cfg, nil
}
