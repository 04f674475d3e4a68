// Package app wires a configured invocation together: logger, repository,
// source-control hook and the reproduction scheduler.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/repo"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	repo   *repo.Repo
}

// NewApp constructs the application: it opens the repository and builds the
// final logger from the flag overrides and the repository config. A failure
// to open the repository is a fatal startup error and panics; the caller
// recovers it into a clean exit.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	// Minimal logger until the repository config is available.
	bootstrap := newLogger("info", "text", errW)
	ctx := ctxlog.WithLogger(context.Background(), bootstrap)

	r, err := repo.Open(ctx, cfg.RootDir)
	if err != nil {
		panic(fmt.Errorf("failed to open repository: %w", err))
	}

	level := cfg.LogLevel
	if level == "" {
		level = r.Config().Core.LogLevel
	}
	format := cfg.LogFormat
	if format == "" {
		format = r.Config().Core.LogFormat
	}
	logger := newLogger(level, format, errW)
	logger.Debug("Logger configured.", "level", level, "format", format)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		repo:   r,
	}
}

// Repo returns the opened repository. This is primarily for testing.
func (a *App) Repo() *repo.Repo {
	return a.repo
}
