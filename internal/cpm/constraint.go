package cpm

import "github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"

// startBound is the earliest start an edge allows its successor, given the
// predecessor's early dates and the successor's duration.
func startBound(e graph.Edge, predES, predEF, succDur int) int {
	switch e.Type {
	case graph.StartToStart:
		return predES + e.Lag
	case graph.FinishToFinish:
		return predEF + e.Lag - succDur
	case graph.StartToFinish:
		return predES + e.Lag - succDur
	default:
		return predEF + e.Lag
	}
}

// finishBound is the latest finish an edge allows its predecessor, given the
// successor's late dates and the predecessor's duration.
func finishBound(e graph.Edge, succLS, succLF, predDur int) int {
	switch e.Type {
	case graph.StartToStart:
		return succLS - e.Lag + predDur
	case graph.FinishToFinish:
		return succLF - e.Lag
	case graph.StartToFinish:
		return succLF - e.Lag + predDur
	default:
		return succLS - e.Lag
	}
}
