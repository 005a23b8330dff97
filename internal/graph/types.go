package graph

// DepType is the relationship between a predecessor and a successor.
type DepType string

const (
	FinishToStart  DepType = "FS"
	StartToStart   DepType = "SS"
	FinishToFinish DepType = "FF"
	StartToFinish  DepType = "SF"
)

// Valid reports whether t is one of the four dependency types.
// The empty string is accepted and treated as FS.
func (t DepType) Valid() bool {
	switch t {
	case "", FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

// Normalize maps the empty type to FS.
func (t DepType) Normalize() DepType {
	if t == "" {
		return FinishToStart
	}
	return t
}

// Activity is a schedulable unit of work. Duration is in elapsed working
// days; zero marks a milestone.
type Activity struct {
	ID       string `json:"id" yaml:"id"`
	Duration int    `json:"duration" yaml:"duration"`
}

// Dependency links two activities. Lag is signed: positive delays the
// successor, negative (a lead) pulls it earlier.
type Dependency struct {
	Predecessor string  `json:"predecessor" yaml:"predecessor"`
	Successor   string  `json:"successor" yaml:"successor"`
	Type        DepType `json:"type,omitempty" yaml:"type,omitempty"`
	Lag         int     `json:"lag,omitempty" yaml:"lag,omitempty"`
}

// Edge is a dependency resolved to node indices.
type Edge struct {
	From int
	To   int
	Type DepType
	Lag  int
}

// Node is an activity plus the indices of its incoming and outgoing edges
// in Graph.Edges, in dependency input order.
type Node struct {
	ID       string
	Duration int
	In       []int
	Out      []int
}

// Graph is an arena-indexed dependency network. Node indices follow the
// order activities were supplied in.
type Graph struct {
	Nodes []Node
	Edges []Edge
	index map[string]int
}
