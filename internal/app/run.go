package app

import (
	"context"
	"fmt"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/repro"
	"github.com/vk/restage/internal/scm"
)

// Run executes one reproduction run based on the provided configuration and
// prints the relpath of every reproduced stage to the output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	opts := repro.Options{
		Target:           a.config.Target,
		Recursive:        a.config.Recursive,
		Pipeline:         a.config.Pipeline,
		AllPipelines:     a.config.AllPipelines,
		Dry:              a.config.Dry,
		Force:            a.config.Force,
		Interactive:      a.config.Interactive,
		Downstream:       a.config.Downstream,
		SingleItem:       a.config.SingleItem,
		IgnoreBuildCache: a.config.IgnoreBuildCache,
	}
	if !a.config.InteractiveSet {
		opts.Interactive = a.repo.Config().Core.Interactive
	}

	hook := &scm.GitReminderHook{Root: a.repo.Root()}
	stages, err := repro.Run(ctx, a.repo, hook, opts)
	if err != nil {
		return fmt.Errorf("reproduction failed: %w", err)
	}

	if len(stages) == 0 {
		a.logger.Info("Everything is up to date, nothing to reproduce.")
		return nil
	}
	for _, st := range stages {
		fmt.Fprintln(a.outW, st.Relpath)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
