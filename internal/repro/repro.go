// Package repro is the reproduction scheduler: given a target and a
// dependency graph it decides which stages to visit, in what order, and
// whether an out-of-date upstream result forces downstream stages to re-run.
//
// The scheduler itself holds no state between runs. Graph construction,
// change detection and the actual re-computation of a stage live behind the
// collaborator interfaces below.
package repro

import (
	"context"

	"github.com/vk/restage/internal/graph"
	"github.com/vk/restage/internal/stage"
)

// StageRepository resolves targets to stages and performs the actual
// re-computation of a single stage.
type StageRepository interface {
	// Load resolves a target to its stage, returning a *stage.NotFoundError
	// when nothing matches.
	Load(ctx context.Context, target string) (*stage.Stage, error)
	// Reproduce re-executes one stage. It returns nil when the stage was
	// unchanged and skipped, or the updated stage definition.
	Reproduce(ctx context.Context, st *stage.Stage, opts stage.ReproduceOptions) (*stage.Stage, error)
	// Dump persists an updated stage definition.
	Dump(ctx context.Context, st *stage.Stage) error
}

// GraphAdapter supplies the dependency graph, either whole or scoped to a
// directory, together with the node-to-stage mapping.
type GraphAdapter interface {
	Graph(ctx context.Context) (*graph.Graph, map[string]*stage.Stage, error)
	GraphUnder(ctx context.Context, dir string) (*graph.Graph, map[string]*stage.Stage, error)
}

// Locker guards shared repository state for the duration of a whole run.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

// Workspace is the full repository surface the scheduler drives.
type Workspace interface {
	StageRepository
	GraphAdapter
	Locker
	// Root returns the absolute repository root directory.
	Root() string
}

// Options enumerates every run option with its default. The zero value
// means: reproduce the single named target's pipeline upstream, really
// executing commands, without prompting.
type Options struct {
	// Target names the stage to reproduce: a stage file path, or a
	// directory with Recursive. Required unless AllPipelines is set.
	Target string
	// Recursive treats a directory target as a set of independent starting
	// points, scheduled in postorder.
	Recursive bool
	// Pipeline reproduces every terminal stage of the target's pipeline.
	Pipeline bool
	// AllPipelines reproduces every terminal stage of every pipeline.
	AllPipelines bool

	// Dry reports what would be reproduced without executing or persisting.
	Dry bool
	// Force reproduces stages even when their inputs look unchanged.
	Force bool
	// Interactive asks for confirmation before each reproduction. When the
	// caller leaves it unset, the repository config default applies; that
	// resolution happens before Run is called.
	Interactive bool
	// Downstream walks the target's dependents instead of its dependencies.
	Downstream bool
	// SingleItem reproduces only the target stage, without any traversal.
	SingleItem bool
	// IgnoreBuildCache forces every stage remaining in a traversal once any
	// upstream stage has reproduced with changes.
	IgnoreBuildCache bool

	// Confirm overrides the interactive prompt; used by tests.
	Confirm stage.ConfirmFunc
}

// reproduceOptions maps the run options onto the per-stage options, with the
// traversal's current force flag substituted in.
func (o Options) reproduceOptions(force bool) stage.ReproduceOptions {
	return stage.ReproduceOptions{
		Dry:              o.Dry,
		Force:            force,
		Interactive:      o.Interactive,
		Downstream:       o.Downstream,
		SingleItem:       o.SingleItem,
		IgnoreBuildCache: o.IgnoreBuildCache,
		Confirm:          o.Confirm,
	}
}
