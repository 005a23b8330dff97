package graph

// Build constructs an indexed Graph from flat activity and dependency lists.
// Structural problems (duplicate ids, dangling references, unknown types)
// are reported before any scheduling work. The input slices are not
// retained or modified.
func Build(activities []Activity, deps []Dependency) (*Graph, error) {
	g := &Graph{
		Nodes: make([]Node, len(activities)),
		Edges: make([]Edge, 0, len(deps)),
		index: make(map[string]int, len(activities)),
	}

	for i, a := range activities {
		if _, dup := g.index[a.ID]; dup {
			return nil, &DuplicateActivityError{ID: a.ID, Index: i}
		}
		g.index[a.ID] = i
		g.Nodes[i] = Node{ID: a.ID, Duration: a.Duration}
	}

	for i, d := range deps {
		from, ok := g.index[d.Predecessor]
		if !ok {
			return nil, &UnknownActivityError{Dependency: i, Side: "predecessor", ID: d.Predecessor}
		}
		to, ok := g.index[d.Successor]
		if !ok {
			return nil, &UnknownActivityError{Dependency: i, Side: "successor", ID: d.Successor}
		}
		if !d.Type.Valid() {
			return nil, &InvalidDependencyError{Dependency: i, Type: d.Type}
		}

		e := len(g.Edges)
		g.Edges = append(g.Edges, Edge{From: from, To: to, Type: d.Type.Normalize(), Lag: d.Lag})
		g.Nodes[from].Out = append(g.Nodes[from].Out, e)
		g.Nodes[to].In = append(g.Nodes[to].In, e)
	}

	return g, nil
}

// Len returns the number of activities in the graph.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Index returns the node index of an activity id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ID returns the activity id at node index i.
func (g *Graph) ID(i int) string {
	return g.Nodes[i].ID
}

// Predecessors returns the node indices feeding i, in dependency order.
func (g *Graph) Predecessors(i int) []int {
	in := g.Nodes[i].In
	out := make([]int, len(in))
	for k, e := range in {
		out[k] = g.Edges[e].From
	}
	return out
}

// Successors returns the node indices fed by i, in dependency order.
func (g *Graph) Successors(i int) []int {
	outEdges := g.Nodes[i].Out
	out := make([]int, len(outEdges))
	for k, e := range outEdges {
		out[k] = g.Edges[e].To
	}
	return out
}

// Sources returns the activities with no predecessors, in input order.
func (g *Graph) Sources() []int {
	var ids []int
	for i := range g.Nodes {
		if len(g.Nodes[i].In) == 0 {
			ids = append(ids, i)
		}
	}
	return ids
}

// Sinks returns the activities with no successors, in input order.
func (g *Graph) Sinks() []int {
	var ids []int
	for i := range g.Nodes {
		if len(g.Nodes[i].Out) == 0 {
			ids = append(ids, i)
		}
	}
	return ids
}
