package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/graph"
	"github.com/vk/restage/internal/stage"
)

// Graph builds the dependency graph over every stage in the repository and
// returns it together with the node-to-stage mapping. An edge points from a
// stage to the stage producing one of its declared dependencies.
func (r *Repo) Graph(ctx context.Context) (*graph.Graph, map[string]*stage.Stage, error) {
	stages, err := r.Stages(ctx)
	if err != nil {
		return nil, nil, err
	}
	return buildGraph(ctx, stages)
}

// GraphUnder builds the dependency graph scoped to stages whose stage file
// sits at or below the given directory (relative to the root or absolute).
func (r *Repo) GraphUnder(ctx context.Context, dir string) (*graph.Graph, map[string]*stage.Stage, error) {
	g, stages, err := r.Graph(ctx)
	if err != nil {
		return nil, nil, err
	}

	rel := dir
	if filepath.IsAbs(dir) {
		rel, err = filepath.Rel(r.root, dir)
		if err != nil {
			return nil, nil, fmt.Errorf("directory %s is outside the repository root: %w", dir, err)
		}
	}

	sub := g.SubgraphUnder(filepath.ToSlash(rel))
	scoped := make(map[string]*stage.Stage, sub.Len())
	for _, id := range sub.Nodes() {
		scoped[id] = stages[id]
	}
	return sub, scoped, nil
}

// buildGraph indexes every stage's outputs and links each stage to the
// producers of its dependencies. The resulting graph is validated to be
// acyclic before anything traverses it.
func buildGraph(ctx context.Context, stages []*stage.Stage) (*graph.Graph, map[string]*stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)

	g := graph.New()
	byNode := make(map[string]*stage.Stage, len(stages))
	producers := make(map[string]*stage.Stage)

	for _, st := range stages {
		if prev, ok := byNode[st.Relpath]; ok && prev != st {
			return nil, nil, fmt.Errorf("duplicate stage identifier '%s'", st.Relpath)
		}
		byNode[st.Relpath] = st
		g.AddNode(st.Relpath)

		dir := filepath.Dir(st.Path)
		for _, out := range st.Outs {
			key := absPath(dir, out)
			if other, ok := producers[key]; ok {
				return nil, nil, fmt.Errorf("output '%s' is produced by both '%s' and '%s'", out, other.Relpath, st.Relpath)
			}
			producers[key] = st
		}
	}

	for _, st := range stages {
		dir := filepath.Dir(st.Path)
		for _, dep := range st.Deps {
			producer, ok := producers[absPath(dir, dep)]
			if !ok || producer == st {
				// Dependencies without a producing stage are source files.
				continue
			}
			if err := g.AddEdge(st.Relpath, producer.Relpath); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return nil, nil, fmt.Errorf("invalid stage dependency graph: %w", err)
	}

	logger.Debug("Dependency graph built.", "nodes", g.Len())
	return g, byNode, nil
}

func absPath(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}
