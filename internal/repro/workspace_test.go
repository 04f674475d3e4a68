package repro

import (
	"context"

	"github.com/vk/restage/internal/graph"
	"github.com/vk/restage/internal/stage"
)

// reproduceCall records one invocation of Reproduce as seen by the fake
// workspace, including the force flag the executor passed.
type reproduceCall struct {
	node  string
	force bool
	dry   bool
}

// fakeWorkspace implements Workspace in memory. Reproduction is simulated:
// a node listed in changed (or a forced one) reports an updated stage, any
// other reports a no-op, and a node listed in failOn fails.
type fakeWorkspace struct {
	root   string
	g      *graph.Graph
	stages map[string]*stage.Stage

	changed map[string]bool
	failOn  map[string]error

	calls       []reproduceCall
	dumped      []string
	lockCount   int
	unlockCount int
	graphCalls  int
}

// newFakeWorkspace builds a workspace over the given dependency edges
// (from dependent to dependency). Every mentioned node becomes a stage whose
// relpath is its node ID.
func newFakeWorkspace(root string, edges [][2]string, nodes ...string) *fakeWorkspace {
	g := graph.New()
	stages := make(map[string]*stage.Stage)

	add := func(id string) {
		if _, ok := stages[id]; !ok {
			g.AddNode(id)
			stages[id] = &stage.Stage{Path: root + "/" + id, Relpath: id, Name: id}
		}
	}
	for _, id := range nodes {
		add(id)
	}
	for _, edge := range edges {
		add(edge[0])
		add(edge[1])
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			panic(err)
		}
	}

	return &fakeWorkspace{
		root:    root,
		g:       g,
		stages:  stages,
		changed: make(map[string]bool),
		failOn:  make(map[string]error),
	}
}

func (f *fakeWorkspace) Root() string { return f.root }

func (f *fakeWorkspace) Load(ctx context.Context, target string) (*stage.Stage, error) {
	if st, ok := f.stages[target]; ok {
		return st, nil
	}
	return nil, &stage.NotFoundError{Target: target}
}

func (f *fakeWorkspace) Graph(ctx context.Context) (*graph.Graph, map[string]*stage.Stage, error) {
	f.graphCalls++
	return f.g, f.stages, nil
}

func (f *fakeWorkspace) GraphUnder(ctx context.Context, dir string) (*graph.Graph, map[string]*stage.Stage, error) {
	f.graphCalls++
	sub := f.g.SubgraphUnder(dir)
	scoped := make(map[string]*stage.Stage, sub.Len())
	for _, id := range sub.Nodes() {
		scoped[id] = f.stages[id]
	}
	return sub, scoped, nil
}

func (f *fakeWorkspace) Reproduce(ctx context.Context, st *stage.Stage, opts stage.ReproduceOptions) (*stage.Stage, error) {
	f.calls = append(f.calls, reproduceCall{node: st.Relpath, force: opts.Force, dry: opts.Dry})
	if err := f.failOn[st.Relpath]; err != nil {
		return nil, err
	}
	if opts.Force || f.changed[st.Relpath] {
		if !opts.Dry {
			// Checksums are persisted after a real reproduction, so a later
			// traversal sees the stage as up to date.
			f.changed[st.Relpath] = false
		}
		return st, nil
	}
	return nil, nil
}

func (f *fakeWorkspace) Dump(ctx context.Context, st *stage.Stage) error {
	f.dumped = append(f.dumped, st.Relpath)
	return nil
}

func (f *fakeWorkspace) Lock(ctx context.Context) error {
	f.lockCount++
	return nil
}

func (f *fakeWorkspace) Unlock() error {
	f.unlockCount++
	return nil
}

// visited returns the node IDs of every Reproduce call in order.
func (f *fakeWorkspace) visited() []string {
	ids := make([]string, len(f.calls))
	for i, call := range f.calls {
		ids[i] = call.node
	}
	return ids
}

// relpaths extracts the relpaths of a result list.
func relpaths(stages []*stage.Stage) []string {
	ids := make([]string, len(stages))
	for i, st := range stages {
		ids[i] = st.Relpath
	}
	return ids
}
