package graph

// Reachable returns root and every type reachable from it along forward
// edges, in breadth-first order. It returns nil if root is not a node.
func (g *Graph) Reachable(root string) []string {
	if _, ok := g.Kinds[root]; !ok {
		return nil
	}

	visited := map[string]bool{root: true}
	order := []string{root}
	queue := []string{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.Edges[current] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			order = append(order, e.To)
			queue = append(queue, e.To)
		}
	}

	return order
}

// Subgraph returns the graph induced by names: only those nodes and the
// edges between them.
func (g *Graph) Subgraph(names []string) *Graph {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := g.Kinds[name]; ok {
			keep[name] = true
		}
	}

	sub := newGraph()
	for name := range keep {
		sub.Kinds[name] = g.Kinds[name]
		sub.Edges[name] = []Edge{}
	}
	for name := range keep {
		for _, e := range g.Edges[name] {
			if !keep[e.To] {
				continue
			}
			sub.Edges[name] = append(sub.Edges[name], e)
			sub.ReverseEdges[e.To] = append(sub.ReverseEdges[e.To], name)
		}
	}
	return sub
}
