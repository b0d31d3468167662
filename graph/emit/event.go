package emit

// Event is one observability record of a graph run.
//
// Msg names the lifecycle point: run_start, layer_start, gate_evaluated,
// node_complete, node_pruned, node_failed, layer_complete, run_complete or
// run_failed.
type Event struct {
	// RunID identifies the run that emitted this event.
	RunID string

	// Step is the layer number, starting at 1. Zero for run-level events
	// emitted before the first layer.
	Step int

	// NodeID identifies the node the event is about. Empty for layer- and
	// run-level events.
	NodeID string

	// Msg is the event type.
	Msg string

	// Meta carries event specific data. Common keys:
	//   - "kind": node variant
	//   - "forward": whether the node forwarded
	//   - "latency_ms": node execution time
	//   - "error": failure description
	//   - "to", "enabled": gate evaluation outcome
	Meta map[string]any
}

// Failed reports whether the event describes a failure.
func (e Event) Failed() bool {
	if e.Msg == "node_failed" || e.Msg == "run_failed" {
		return true
	}
	_, ok := e.Meta["error"]
	return ok
}
