package nodes

import (
	"context"

	"github.com/dshills/raggraph-go/graph"
)

// Terminal ends a branch with the Response of an earlier node, looked up in
// AllResults. It never forwards.
type Terminal struct {
	source string
}

// NewTerminal creates a terminal node returning source's Response.
func NewTerminal(source string) *Terminal {
	return &Terminal{source: source}
}

// Kind implements graph.Kinded.
func (t *Terminal) Kind() graph.Kind { return graph.KindTerminal }

// Run implements graph.Node.
func (t *Terminal) Run(_ context.Context, state graph.State) graph.Result {
	res, ok := state.Lookup(t.source)
	if !ok {
		return upstreamFailure("%s has no result", t.source)
	}
	return graph.Result{
		Response: res.Response,
		Meta:     map[string]any{"source": t.source},
	}
}
