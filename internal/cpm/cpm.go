package cpm

import (
	"encoding/json"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
)

// Engine is the stateless calculation facade. The zero value is ready to
// use and may be shared between goroutines.
type Engine struct{}

// Calculate is Engine's entry point; see the package-level Calculate.
func (Engine) Calculate(activities []graph.Activity, deps []graph.Dependency) (*Schedule, error) {
	return Calculate(activities, deps)
}

// Calculate performs critical path analysis. The pipeline is
// build graph -> cycle check -> forward pass -> backward pass -> floats;
// a failure at any stage returns a nil Schedule and the error
// (*graph.DuplicateActivityError, *graph.UnknownActivityError,
// *graph.InvalidDependencyError or *graph.CycleError).
func Calculate(activities []graph.Activity, deps []graph.Dependency) (*Schedule, error) {
	n, err := Compile(activities, deps)
	if err != nil {
		return nil, err
	}
	return n.Schedule(nil)
}

// freeFloat is the gap between activity i's early finish and the earliest
// early start among its direct successors, whatever the edge types and
// lags. It can be negative when a successor overlaps i (SS, FF, SF or a
// lead). Sinks take their total float.
func (n *Network) freeFloat(i int, es, ef []int, totalFloat int) int {
	out := n.g.Nodes[i].Out
	if len(out) == 0 {
		return totalFloat
	}
	earliest := es[n.g.Edges[out[0]].To]
	for _, e := range out[1:] {
		if s := es[n.g.Edges[e].To]; s < earliest {
			earliest = s
		}
	}
	return earliest - ef[i]
}

// drivingEdges flags, per edge, whether the edge's bound sets its
// successor's early start (zero edge slack).
func (n *Network) drivingEdges(durations, es, ef []int) []bool {
	driving := make([]bool, len(n.g.Edges))
	for k, edge := range n.g.Edges {
		driving[k] = es[edge.To] == startBound(edge, es[edge.From], ef[edge.From], durations[edge.To])
	}
	return driving
}

// criticalPath returns one chain of critical activities ending at the
// project finish. Only driving edges are followed. The chain starts at the
// first qualifying activity in topological order and, at each step, takes
// the first qualifying successor in dependency input order.
func (n *Network) criticalPath(driving []bool, ef []int, results []Result, finish int) []int {
	if len(n.order) == 0 {
		return nil
	}

	// reach[i]: i is critical and a driving critical chain from i ends at
	// the project finish.
	reach := make([]bool, len(n.g.Nodes))
	for k := len(n.order) - 1; k >= 0; k-- {
		i := n.order[k]
		if !results[i].IsCritical {
			continue
		}
		if ef[i] == finish {
			reach[i] = true
			continue
		}
		for _, e := range n.g.Nodes[i].Out {
			if driving[e] && reach[n.g.Edges[e].To] {
				reach[i] = true
				break
			}
		}
	}

	cur := -1
	for _, i := range n.order {
		if reach[i] {
			cur = i
			break
		}
	}
	if cur < 0 {
		return nil
	}

	path := []int{cur}
	for {
		next := -1
		for _, e := range n.g.Nodes[cur].Out {
			if driving[e] && reach[n.g.Edges[e].To] {
				next = n.g.Edges[e].To
				break
			}
		}
		if next < 0 {
			return path
		}
		path = append(path, next)
		cur = next
	}
}

// ProjectDuration returns the largest early finish across all activities.
func (s *Schedule) ProjectDuration() int {
	return s.finish
}

// CriticalPath returns the ordered ids of one critical chain from a start
// activity to the project finish. When several chains tie, the one found
// first in topological/input order is returned.
func (s *Schedule) CriticalPath() []string {
	out := make([]string, len(s.critical))
	for k, i := range s.critical {
		out[k] = s.ids[i]
	}
	return out
}

// Result returns the computed result for an activity.
func (s *Schedule) Result(id string) (Result, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Result{}, false
	}
	return s.results[i], true
}

// IsCriticalEdge reports whether dependency k (input order) joins two
// critical activities and drives its successor's early start.
func (s *Schedule) IsCriticalEdge(k int) bool {
	if k < 0 || k >= len(s.criticalEdges) {
		return false
	}
	return s.criticalEdges[k]
}

// Results returns a fresh map of activity id to Result.
func (s *Schedule) Results() map[string]Result {
	out := make(map[string]Result, len(s.results))
	for i, r := range s.results {
		out[s.ids[i]] = r
	}
	return out
}

// Duration returns the duration an activity was scheduled with.
func (s *Schedule) Duration(id string) int {
	if i, ok := s.byID[id]; ok {
		return s.durations[i]
	}
	return 0
}

// ActivityIDs returns activity ids in input order.
func (s *Schedule) ActivityIDs() []string {
	return append([]string(nil), s.ids...)
}

// TopoOrder returns activity ids in the evaluation order used by the passes.
func (s *Schedule) TopoOrder() []string {
	out := make([]string, len(s.order))
	for k, i := range s.order {
		out[k] = s.ids[i]
	}
	return out
}

// ActivityResult pairs an id with its Result for serialization.
type ActivityResult struct {
	ID       string `json:"id"`
	Duration int    `json:"duration"`
	Result
}

type scheduleJSON struct {
	ProjectDuration int              `json:"project_duration"`
	CriticalPath    []string         `json:"critical_path"`
	Activities      []ActivityResult `json:"activities"`
}

// Rows returns every activity result in input order.
func (s *Schedule) Rows() []ActivityResult {
	rows := make([]ActivityResult, len(s.ids))
	for i, id := range s.ids {
		rows[i] = ActivityResult{ID: id, Duration: s.durations[i], Result: s.results[i]}
	}
	return rows
}

// MarshalJSON renders the schedule with activities in input order so that
// identical inputs produce identical bytes.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(scheduleJSON{
		ProjectDuration: s.finish,
		CriticalPath:    s.CriticalPath(),
		Activities:      s.Rows(),
	})
}
