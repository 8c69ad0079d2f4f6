package graph

import "fmt"

// TopologyKind discriminates the ways a graph can fail validation or
// compilation, matching the core's GraphTopology error kind.
type TopologyKind int

const (
	// CycleDetected means Compile found a directed cycle.
	CycleDetected TopologyKind = iota
	// Orphan means the graph has zero or more than one reachable output.
	Orphan
	// Cardinality means a node violates its kind's in/out-degree rule
	// (merge in-degree >= 1, split out-degree >= 1, effect in/out-degree
	// == 1, output in-degree == 1).
	Cardinality
	// RecompileRequired means ProcessBlock ran without a current compiled
	// schedule: Compile was never called, or Connect/AddX was called
	// after the last Compile.
	RecompileRequired
	// UnknownNodeID means Connect referenced a node id the graph doesn't
	// own.
	UnknownNodeID
)

// TopologyError is returned by Connect and Compile, and by ProcessBlock
// (kind RecompileRequired) when there is no current compiled schedule; a
// compiled schedule has already passed validation.
type TopologyError struct {
	Kind TopologyKind
	Msg  string
}

func (e *TopologyError) Error() string { return e.Msg }

func topoErr(kind TopologyKind, format string, args ...interface{}) *TopologyError {
	return &TopologyError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
