package graph

// Edge is a directed link between two nodes of the graph.
//
// Edges can be:
//   - Unconditional: always enabled (Gate = nil).
//   - Gated: enabled only while Gate returns true for the current state.
//
// Gates are re-evaluated every time the From node is part of the current
// layer, so a change in the merged results flips the edge on the next step.
type Edge struct {
	// From is the source node name.
	From string

	// To is the destination node name.
	To string

	// Gate decides whether the edge is enabled. Nil means always enabled.
	Gate Gate
}

// Gate is a predicate over the merged run state deciding whether an edge is enabled.
//
// Gates must be total and side-effect free: they run once per traversal step
// in which their source node was just executed, and must return an explicit
// answer every time. Gates should read State.AllResults rather than
// ParentResults so routing reflects everything seen so far.
//
// Example:
//
//	webSearch := func(s graph.State) bool {
//	    r, ok := s.Lookup("ToolUsageCategorizer")
//	    return ok && containsIntent(r.Response, "web_search")
//	}
type Gate func(state State) bool

// enabled evaluates the gate, treating a panicking gate as disabled.
func (e Edge) enabled(state State) (on bool, panicked bool) {
	if e.Gate == nil {
		return true, false
	}
	defer func() {
		if r := recover(); r != nil {
			on, panicked = false, true
		}
	}()
	return e.Gate(state), false
}
