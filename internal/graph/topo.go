package graph

import "errors"

// TopoOrder returns the node indices in a topological order using Kahn's
// algorithm. The ready queue is FIFO, seeded in activity input order, and
// successors are released in dependency input order, so the result depends
// only on input order and never on ids.
//
// If the graph is cyclic a *CycleError describing one offending cycle is
// returned instead.
func (g *Graph) TopoOrder() ([]int, error) {
	n := len(g.Nodes)
	inDegree := make([]int, n)
	order := make([]int, 0, n)
	for i := range g.Nodes {
		inDegree[i] = len(g.Nodes[i].In)
		if inDegree[i] == 0 {
			order = append(order, i)
		}
	}

	// order doubles as the queue: everything past head is ready but unvisited.
	for head := 0; head < len(order); head++ {
		for _, e := range g.Nodes[order[head]].Out {
			to := g.Edges[e].To
			inDegree[to]--
			if inDegree[to] == 0 {
				order = append(order, to)
			}
		}
	}

	if len(order) != n {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return order, nil
}

// DetectCycle returns the members of one cycle, or nil if the graph is
// acyclic.
func (g *Graph) DetectCycle() []string {
	_, err := g.TopoOrder()
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr.Cycle
	}
	return nil
}

// findCycle runs a white/gray/black DFS over the nodes Kahn's algorithm
// could not release (remaining in-degree > 0). That set always contains a
// cycle; the first back edge found is unwound through the parent links.
func (g *Graph) findCycle(remaining []int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.Nodes))
	parent := make([]int, len(g.Nodes))

	var dfs func(node int) []string
	dfs = func(node int) []string {
		color[node] = gray
		for _, e := range g.Nodes[node].Out {
			next := g.Edges[e].To
			if remaining[next] == 0 {
				continue
			}
			if color[next] == gray {
				var members []string
				for cur := node; ; cur = parent[cur] {
					members = append(members, g.Nodes[cur].ID)
					if cur == next {
						break
					}
				}
				for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
					members[i], members[j] = members[j], members[i]
				}
				return members
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for i := range g.Nodes {
		if remaining[i] > 0 && color[i] == white {
			if cycle := dfs(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
