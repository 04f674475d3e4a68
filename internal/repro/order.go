package repro

import "github.com/vk/restage/internal/graph"

// plan produces the ordered sequence of nodes the executor must visit for
// one starting point.
//
// Forward mode is a postorder depth-first walk over dependency edges: every
// prerequisite of a node is yielded before the node itself, and the starting
// node comes last.
//
// Downstream mode walks the reversed view of the graph in preorder: the
// starting node comes first, and a node's dependents are never yielded
// before the node itself. The reversal is an edge-flipped view, so the
// original graph is left untouched for later starting points.
func plan(g *graph.Graph, startID string, downstream bool) ([]string, error) {
	if downstream {
		return g.Reverse().PreorderFrom(startID)
	}
	return g.PostorderFrom(startID)
}
