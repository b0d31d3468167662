package graph

import "fmt"

// Validate checks the graph's structure:
//
//   - every option passed to New was valid
//   - exactly one node is marked AsStart
//   - every edge references registered nodes
//   - no node reaches two end nodes through unconditional edges, which would
//     always leave two results in the final layer
//
// Run calls Validate before executing anything.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := g.validateLocked()
	return err
}

func (g *Graph) validateLocked() (string, error) {
	if g.optErr != nil {
		return "", &EngineError{Message: g.optErr.Error(), Code: "INVALID_OPTION", Err: g.optErr}
	}

	var starts []string
	for _, name := range g.order {
		if g.nodes[name].start {
			starts = append(starts, name)
		}
	}
	if len(starts) != 1 {
		return "", &EngineError{
			Message: fmt.Sprintf("found %d start nodes %v", len(starts), starts),
			Code:    "NO_START_NODE",
			Err:     ErrNoStartNode,
		}
	}

	for _, e := range g.edges {
		for _, end := range []string{e.From, e.To} {
			if _, ok := g.nodes[end]; !ok {
				return "", &EngineError{
					Message: fmt.Sprintf("edge %s -> %s references unknown node %q", e.From, e.To, end),
					Code:    "NODE_NOT_FOUND",
					Err:     ErrUnknownNode,
				}
			}
		}
	}

	ends := make(map[string][]string)
	for _, e := range g.edges {
		if e.Gate != nil || !g.nodes[e.To].end {
			continue
		}
		ends[e.From] = append(ends[e.From], e.To)
	}
	for _, from := range g.order {
		if targets := dedupe(ends[from]); len(targets) > 1 {
			return "", &EngineError{
				Message: fmt.Sprintf("node %s always reaches end nodes %v together", from, targets),
				Code:    "AMBIGUOUS_TERMINAL",
				Err:     ErrAmbiguousTerminal,
			}
		}
	}

	return starts[0], nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
