package repro

import (
	"context"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/scm"
	"github.com/vk/restage/internal/stage"
)

// Run is the scheduler entry point. It validates the options, resolves the
// starting points, and reproduces each one's traversal in sequence while
// holding the exclusive repository lock for the whole run. The source
// control hook is invoked explicitly before results are returned.
//
// A failure in any traversal aborts the remaining starting points; the
// stages reproduced up to that point are returned alongside the error and
// stay persisted.
func Run(ctx context.Context, ws Workspace, hook scm.Hook, opts Options) ([]*stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)

	if opts.Target == "" && !opts.AllPipelines {
		return nil, ErrInvalidTarget
	}

	targets, err := resolveTargets(ctx, ws, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Starting points resolved.", "count", len(targets))

	// The lock covers every traversal of the run and is released on every
	// exit path, including failure.
	if err := ws.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Unlock(); err != nil {
			logger.Error("Failed to release repository lock.", "error", err)
		}
	}()

	var result []*stage.Stage
	for _, target := range targets {
		reproduced, err := reproduceTarget(ctx, ws, target, opts)
		result = append(result, reproduced...)
		if err != nil {
			return result, err
		}
	}

	if hook != nil {
		if err := hook.PostRun(ctx, result); err != nil {
			return result, err
		}
	}

	logger.Info("Reproduction finished.", "reproduced", len(result))
	return result, nil
}
