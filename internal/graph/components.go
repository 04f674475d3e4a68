package graph

import "strings"

// Components returns the weakly-connected components of the graph: the
// "pipelines" a repository decomposes into. Each component is an induced
// subgraph over the same node IDs. Components are ordered by their smallest
// node ID, so the decomposition is deterministic for a fixed graph.
func (g *Graph) Components() []*Graph {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[string]bool)
	var components []*Graph

	for _, id := range sortedIDs(g.nodes) {
		if visited[id] {
			continue
		}

		// Flood-fill over both edge directions to collect the component.
		member := make(map[string]bool)
		stack := []*node{g.nodes[id]}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[n.id] {
				continue
			}
			visited[n.id] = true
			member[n.id] = true
			for _, dep := range n.deps {
				stack = append(stack, dep)
			}
			for _, dependent := range n.dependents {
				stack = append(stack, dependent)
			}
		}

		components = append(components, g.induced(member))
	}

	return components
}

// SubgraphUnder returns the induced subgraph of all nodes whose ID sits at or
// below the given directory prefix. IDs use forward slashes; an empty prefix
// selects the whole graph.
func (g *Graph) SubgraphUnder(prefix string) *Graph {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	prefix = strings.Trim(prefix, "/")
	member := make(map[string]bool)
	for id := range g.nodes {
		if prefix == "" || id == prefix || strings.HasPrefix(id, prefix+"/") {
			member[id] = true
		}
	}
	return g.induced(member)
}

// induced builds the subgraph over the member set, keeping only edges whose
// both endpoints are members. Node IDs are plain strings, so this copies no
// stage payloads. Callers must hold g.mutex.
func (g *Graph) induced(member map[string]bool) *Graph {
	sub := New()
	for id := range member {
		sub.AddNode(id)
	}
	for id := range member {
		for depID := range g.nodes[id].deps {
			if member[depID] {
				// Both endpoints exist, so AddEdge cannot fail here.
				_ = sub.AddEdge(id, depID)
			}
		}
	}
	return sub
}
