package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/tool"
)

// LookupConfig wires a Lookup to its selector and tool.
type LookupConfig struct {
	// Intent must be among the selector's SelectedTools.
	Intent Intent

	// Selector names the ToolSelector in the previous layer.
	Selector string

	// ParamsFrom names the extractor whose parameters are passed to Tool.
	ParamsFrom string

	// Tool performs the lookup.
	Tool tool.Tool
}

// Lookup calls an external tool with the parameters chosen by a ToolSelector.
// Its Response is the raw tool output.
//
// Failures:
//   - graph.ErrToolNotSelected when Intent was not selected
//   - graph.ErrInvalidUpstreamResult when the selection or parameters are missing
//   - *graph.ServiceCallError when the tool fails
type Lookup struct {
	cfg LookupConfig
}

// NewLookup creates a lookup node.
func NewLookup(cfg LookupConfig) (*Lookup, error) {
	if !cfg.Intent.Valid() {
		return nil, fmt.Errorf("lookup: unknown intent %q", cfg.Intent)
	}
	if cfg.Tool == nil {
		return nil, fmt.Errorf("lookup %s requires a tool", cfg.Intent)
	}
	if cfg.Selector == "" || cfg.ParamsFrom == "" {
		return nil, fmt.Errorf("lookup %s requires Selector and ParamsFrom", cfg.Intent)
	}
	return &Lookup{cfg: cfg}, nil
}

// Kind implements graph.Kinded.
func (l *Lookup) Kind() graph.Kind { return graph.KindToolLookup }

// Run implements graph.Node.
func (l *Lookup) Run(ctx context.Context, state graph.State) graph.Result {
	res, ok := state.Parent(l.cfg.Selector)
	if !ok {
		return upstreamFailure("selector %s has no result", l.cfg.Selector)
	}
	sel, ok := res.Response.(Selection)
	if !ok {
		return upstreamFailure("selector %s returned %T, want Selection", l.cfg.Selector, res.Response)
	}
	if !sel.Has(l.cfg.Intent) {
		return graph.Result{Err: graph.Failf("", graph.ErrToolNotSelected, "%s not in %v", l.cfg.Intent, sel.SelectedTools)}
	}
	params, ok := sel.ToolParams[l.cfg.ParamsFrom].(map[string]any)
	if !ok {
		return upstreamFailure("no parameters from %s", l.cfg.ParamsFrom)
	}

	name := l.cfg.Tool.Name()
	meta := map[string]any{"tool": name, "params": params}

	out, err := l.cfg.Tool.Call(ctx, params)
	if err != nil {
		return graph.Result{Meta: meta, Err: &graph.ServiceCallError{Service: name, Err: err}}
	}

	return graph.Result{
		Response:      out,
		Forward:       true,
		Meta:          meta,
		YieldMessages: []graph.YieldMessage{graph.Info(fmt.Sprintf("Called %s with %v", name, params))},
	}
}
