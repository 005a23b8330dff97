package cpm

import (
	"errors"
	"fmt"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
)

// ErrDurationCount is returned when a duration vector does not match the
// number of activities in a Network.
var ErrDurationCount = errors.New("duration count mismatch")

// Network is a validated, topologically ordered dependency graph. Compiling
// once and re-running Schedule or Forward with perturbed durations avoids
// rebuilding the graph and repeating the cycle check. A Network is
// read-only after Compile and safe for concurrent use.
type Network struct {
	g     *graph.Graph
	order []int
}

// Compile builds the graph and verifies it is acyclic.
func Compile(activities []graph.Activity, deps []graph.Dependency) (*Network, error) {
	g, err := graph.Build(activities, deps)
	if err != nil {
		return nil, err
	}
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	return &Network{g: g, order: order}, nil
}

// Len returns the number of activities.
func (n *Network) Len() int {
	return n.g.Len()
}

// Index returns the position of an activity in duration vectors.
func (n *Network) Index(id string) (int, bool) {
	return n.g.Index(id)
}

// ID returns the activity id at position i.
func (n *Network) ID(i int) string {
	return n.g.ID(i)
}

// Graph exposes the underlying graph. Callers must not modify it.
func (n *Network) Graph() *graph.Graph {
	return n.g
}

// Durations returns a fresh copy of the compiled activity durations,
// indexed like the activity input.
func (n *Network) Durations() []int {
	out := make([]int, len(n.g.Nodes))
	for i := range n.g.Nodes {
		out[i] = n.g.Nodes[i].Duration
	}
	return out
}

// Forward fills es and ef with early dates for the given durations and
// returns the project finish (the largest early finish). All three slices
// must have Len() elements. It allocates nothing.
func (n *Network) Forward(durations, es, ef []int) int {
	finish := 0
	for _, i := range n.order {
		start := 0
		for k, e := range n.g.Nodes[i].In {
			edge := n.g.Edges[e]
			b := startBound(edge, es[edge.From], ef[edge.From], durations[i])
			if k == 0 || b > start {
				start = b
			}
		}
		es[i] = start
		ef[i] = start + durations[i]
		if ef[i] > finish {
			finish = ef[i]
		}
	}
	return finish
}

// Backward fills ls and lf with late dates working back from finish. Sinks
// get lf = finish and every late finish is capped at finish, so
// activities whose finish drives nothing stay comparable project-wide.
func (n *Network) Backward(durations []int, finish int, ls, lf []int) {
	for k := len(n.order) - 1; k >= 0; k-- {
		i := n.order[k]
		late := finish
		for _, e := range n.g.Nodes[i].Out {
			edge := n.g.Edges[e]
			if b := finishBound(edge, ls[edge.To], lf[edge.To], durations[i]); b < late {
				late = b
			}
		}
		lf[i] = late
		ls[i] = late - durations[i]
	}
}

// Schedule runs the forward pass, backward pass and float analysis. A nil
// durations slice schedules with the compiled durations.
func (n *Network) Schedule(durations []int) (*Schedule, error) {
	size := n.Len()
	if durations == nil {
		durations = n.Durations()
	} else if len(durations) != size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDurationCount, len(durations), size)
	} else {
		durations = append([]int(nil), durations...)
	}

	buf := make([]int, 4*size)
	es, ef := buf[:size], buf[size:2*size]
	ls, lf := buf[2*size:3*size], buf[3*size:]

	finish := n.Forward(durations, es, ef)
	n.Backward(durations, finish, ls, lf)

	results := make([]Result, size)
	for i := range results {
		tf := ls[i] - es[i]
		results[i] = Result{
			EarlyStart:  es[i],
			EarlyFinish: ef[i],
			LateStart:   ls[i],
			LateFinish:  lf[i],
			TotalFloat:  tf,
			FreeFloat:   n.freeFloat(i, es, ef, tf),
			IsCritical:  tf <= 0,
		}
	}

	driving := n.drivingEdges(durations, es, ef)
	criticalEdges := make([]bool, len(driving))
	for k, edge := range n.g.Edges {
		criticalEdges[k] = driving[k] && results[edge.From].IsCritical && results[edge.To].IsCritical
	}

	ids := make([]string, size)
	byID := make(map[string]int, size)
	for i := range n.g.Nodes {
		ids[i] = n.g.Nodes[i].ID
		byID[ids[i]] = i
	}

	return &Schedule{
		ids:           ids,
		durations:     durations,
		results:       results,
		order:         n.order,
		critical:      n.criticalPath(driving, ef, results, finish),
		criticalEdges: criticalEdges,
		finish:        finish,
		byID:          byID,
	}, nil
}
