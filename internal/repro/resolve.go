package repro

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/graph"
)

// resolveTargets turns the user-supplied target and mode flags into an
// ordered list of starting points, each scheduled as its own traversal.
func resolveTargets(ctx context.Context, ws Workspace, opts Options) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	switch {
	case opts.Recursive && isDir(ws.Root(), opts.Target):
		// Every stage below the directory becomes an independent starting
		// point, ordered so dependencies come before their dependents.
		sub, _, err := ws.GraphUnder(ctx, opts.Target)
		if err != nil {
			return nil, err
		}
		targets := sub.PostorderAll()
		logger.Debug("Recursive target resolved.", "dir", opts.Target, "targets", len(targets))
		return targets, nil

	case opts.Pipeline || opts.AllPipelines:
		g, _, err := ws.Graph(ctx)
		if err != nil {
			return nil, err
		}

		var pipelines []*graph.Graph
		if opts.Pipeline {
			st, err := ws.Load(ctx, opts.Target)
			if err != nil {
				return nil, err
			}
			component, err := componentOf(g, st.Relpath)
			if err != nil {
				return nil, err
			}
			pipelines = []*graph.Graph{component}
		} else {
			pipelines = g.Components()
		}

		// Start from every terminal stage: a node nothing depends on.
		var targets []string
		for _, pipeline := range pipelines {
			for _, id := range pipeline.Nodes() {
				degree, err := pipeline.InDegree(id)
				if err != nil {
					return nil, err
				}
				if degree == 0 {
					targets = append(targets, id)
				}
			}
		}
		logger.Debug("Pipeline targets resolved.", "pipelines", len(pipelines), "targets", len(targets))
		return targets, nil

	default:
		return []string{opts.Target}, nil
	}
}

// componentOf returns the weakly-connected component containing the node.
func componentOf(g *graph.Graph, id string) (*graph.Graph, error) {
	for _, component := range g.Components() {
		if component.HasNode(id) {
			return component, nil
		}
	}
	// The node came from a loaded stage, so this means the graph and the
	// stage files disagree.
	return nil, &ReproductionError{Relpath: id, Err: errNotInGraph}
}

func isDir(root, target string) bool {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, filepath.FromSlash(target))
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
