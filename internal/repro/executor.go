package repro

import (
	"context"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/stage"
)

// reproduceTarget runs the traversal for one starting point: resolve the
// target, plan the visit order, and walk it. It returns the stages that were
// actually reproduced, in visit order; on failure the partial result built
// so far is returned alongside the error.
func reproduceTarget(ctx context.Context, ws Workspace, target string, opts Options) ([]*stage.Stage, error) {
	st, err := ws.Load(ctx, target)
	if err != nil {
		return nil, err
	}

	if opts.SingleItem {
		return reproduceSequence(ctx, ws, []string{st.Relpath}, map[string]*stage.Stage{st.Relpath: st}, opts)
	}

	g, stages, err := ws.Graph(ctx)
	if err != nil {
		return nil, err
	}
	order, err := plan(g, st.Relpath, opts.Downstream)
	if err != nil {
		return nil, err
	}
	return reproduceSequence(ctx, ws, order, stages, opts)
}

// reproduceSequence walks one ordered node sequence. The force flag starts
// from the run options and, under ignore-build-cache, is raised permanently
// for the rest of the sequence as soon as any stage reproduces with changes:
// a changed upstream stage invalidates the "unchanged" assumption of
// everything still to come.
func reproduceSequence(ctx context.Context, repos StageRepository, order []string, stages map[string]*stage.Stage, opts Options) ([]*stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)

	force := opts.Force
	var result []*stage.Stage

	for _, node := range order {
		st, ok := stages[node]
		if !ok {
			return result, &ReproductionError{Relpath: node, Err: errNotInGraph}
		}

		if st.Locked {
			// Advisory only: the stage is still reproduced.
			logger.Warn("Stage file is locked. Its dependencies are not going to be reproduced.", "stage", st.Relpath)
		}

		updated, err := repos.Reproduce(ctx, st, opts.reproduceOptions(force))
		if err != nil {
			return result, &ReproductionError{Relpath: st.Relpath, Err: err}
		}
		if updated == nil {
			continue
		}

		if !opts.Dry {
			if err := repos.Dump(ctx, updated); err != nil {
				return result, &ReproductionError{Relpath: st.Relpath, Err: err}
			}
		}
		result = append(result, updated)

		if opts.IgnoreBuildCache {
			force = true
		}
	}

	return result, nil
}
