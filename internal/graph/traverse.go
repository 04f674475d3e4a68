package graph

import "fmt"

// Reversed is an edge-flipped view of a Graph. It shares the underlying node
// storage with the original graph instead of materializing a structural copy:
// traversals simply walk dependent edges where the base graph walks dependency
// edges. The original graph is left untouched and remains usable.
type Reversed struct {
	g *Graph
}

// Reverse returns an edge-flipped view of the graph.
func (g *Graph) Reverse() *Reversed {
	return &Reversed{g: g}
}

// PostorderFrom performs a postorder depth-first traversal starting at the
// given node, following dependency edges. Dependencies appear before the
// nodes that depend on them; the starting node itself comes last.
func (g *Graph) PostorderFrom(startID string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[startID]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", startID)
	}

	visited := make(map[string]bool)
	var order []string
	postorder(start, depsOf, visited, &order)
	return order, nil
}

// PostorderAll performs a postorder depth-first traversal over the whole
// graph, starting a fresh walk from every yet-unvisited node in sorted order.
func (g *Graph) PostorderAll() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[string]bool)
	order := make([]string, 0, len(g.nodes))
	for _, id := range sortedIDs(g.nodes) {
		if !visited[id] {
			postorder(g.nodes[id], depsOf, visited, &order)
		}
	}
	return order
}

// PreorderFrom performs a preorder depth-first traversal following
// dependency edges: the starting node is yielded first, then its
// dependencies, each before its own dependencies in turn.
func (g *Graph) PreorderFrom(startID string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[startID]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", startID)
	}

	visited := make(map[string]bool)
	var order []string
	preorder(start, depsOf, visited, &order)
	return order, nil
}

// PreorderFrom performs a preorder depth-first traversal over the reversed
// view: the starting node is yielded first, followed by its dependents, each
// before its own dependents in turn.
func (r *Reversed) PreorderFrom(startID string) ([]string, error) {
	r.g.mutex.RLock()
	defer r.g.mutex.RUnlock()

	start, ok := r.g.nodes[startID]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", startID)
	}

	visited := make(map[string]bool)
	var order []string
	preorder(start, dependentsOf, visited, &order)
	return order, nil
}

// depsOf and dependentsOf select which edge set a traversal follows. The
// reversed view is implemented entirely by swapping this selector.
func depsOf(n *node) map[string]*node       { return n.deps }
func dependentsOf(n *node) map[string]*node { return n.dependents }

func postorder(n *node, next func(*node) map[string]*node, visited map[string]bool, order *[]string) {
	visited[n.id] = true
	neighbors := next(n)
	for _, id := range sortedIDs(neighbors) {
		if !visited[id] {
			postorder(neighbors[id], next, visited, order)
		}
	}
	*order = append(*order, n.id)
}

func preorder(n *node, next func(*node) map[string]*node, visited map[string]bool, order *[]string) {
	visited[n.id] = true
	*order = append(*order, n.id)
	neighbors := next(n)
	for _, id := range sortedIDs(neighbors) {
		if !visited[id] {
			preorder(neighbors[id], next, visited, order)
		}
	}
}
