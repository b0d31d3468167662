package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dshills/raggraph-go/graph"
)

// Selection is the Response of a ToolSelector.
type Selection struct {
	// SelectedTools lists the categorized intents in the categorizer's order.
	SelectedTools []string `json:"selected_tools"`

	// ToolParams maps each selected intent's route node to that node's
	// Response, typically extracted parameters.
	ToolParams map[string]any `json:"tool_params"`
}

// Has reports whether intent was selected.
func (s Selection) Has(intent Intent) bool {
	return slices.Contains(s.SelectedTools, string(intent))
}

// SelectorConfig wires a ToolSelector to its upstream nodes.
type SelectorConfig struct {
	// Categorizer names the extractor whose Response lists the intents.
	Categorizer string

	// IntentField is the key of the intent list in the categorizer's
	// Response. Defaults to "intends".
	IntentField string

	// Routes maps each intent to the node whose Response holds its parameters.
	Routes map[Intent]string
}

// ToolSelector joins the categorizer and the per-intent branches of the
// previous layer into a Selection.
//
// Every parent result must have forwarded; otherwise the node fails with
// graph.ErrInvalidUpstreamResult. The same error is reported for a missing
// or malformed intent list, an unknown intent, and a missing route result.
type ToolSelector struct {
	cfg SelectorConfig
}

// NewToolSelector creates a selector.
func NewToolSelector(cfg SelectorConfig) (*ToolSelector, error) {
	if cfg.Categorizer == "" {
		return nil, fmt.Errorf("tool selector requires a categorizer")
	}
	if cfg.IntentField == "" {
		cfg.IntentField = "intends"
	}
	for intent := range cfg.Routes {
		if !intent.Valid() {
			return nil, fmt.Errorf("tool selector: unknown intent %q", intent)
		}
	}
	return &ToolSelector{cfg: cfg}, nil
}

// Kind implements graph.Kinded.
func (s *ToolSelector) Kind() graph.Kind { return graph.KindToolSelector }

// Run implements graph.Node.
func (s *ToolSelector) Run(_ context.Context, state graph.State) graph.Result {
	if len(state.ParentResults) == 0 {
		return upstreamFailure("no upstream results")
	}

	parsed := make(map[string]any, len(state.ParentResults))
	for _, name := range sortedKeys(state.ParentResults) {
		res := state.ParentResults[name]
		if !res.Forward {
			return upstreamFailure("upstream %s did not forward", name)
		}
		parsed[name] = res.Response
	}

	intents, err := readIntents(state.ParentResults, s.cfg.Categorizer, s.cfg.IntentField)
	if err != nil {
		return upstreamFailure("%v", err)
	}

	sel := Selection{ToolParams: make(map[string]any, len(intents))}
	for _, intent := range intents {
		route, ok := s.cfg.Routes[intent]
		if !ok {
			return upstreamFailure("no route for intent %q", intent)
		}
		res, ok := state.ParentResults[route]
		if !ok {
			return upstreamFailure("route %s for intent %q did not run", route, intent)
		}
		sel.SelectedTools = append(sel.SelectedTools, string(intent))
		sel.ToolParams[route] = res.Response
	}

	params, err := json.Marshal(sel.ToolParams)
	if err != nil {
		params = []byte(fmt.Sprintf("%v", sel.ToolParams))
	}

	return graph.Result{
		Response: sel,
		Forward:  true,
		Meta:     map[string]any{"parsed": parsed},
		YieldMessages: []graph.YieldMessage{
			graph.Info(fmt.Sprintf("Selected tools: %v", sel.SelectedTools)),
			graph.Info("Tool parameters: " + string(params)),
		},
	}
}

// readIntents extracts the intent list from a categorizer Response shaped
// like {"intends": ["web_search", ...]}.
func readIntents(results map[string]graph.Result, categorizer, field string) ([]Intent, error) {
	res, ok := results[categorizer]
	if !ok {
		return nil, fmt.Errorf("categorizer %s has no result", categorizer)
	}
	obj, ok := res.Response.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("categorizer %s returned %T, want object", categorizer, res.Response)
	}
	raw, ok := obj[field].([]any)
	if !ok {
		return nil, fmt.Errorf("categorizer %s has no %q list", categorizer, field)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("categorizer %s selected no intents", categorizer)
	}

	intents := make([]Intent, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok || !Intent(str).Valid() {
			return nil, fmt.Errorf("categorizer %s returned unknown intent %v", categorizer, v)
		}
		if slices.Contains(intents, Intent(str)) {
			continue
		}
		intents = append(intents, Intent(str))
	}
	return intents, nil
}

// IntentsOf returns the intents categorizer selected, or nil when its result
// is missing, did not forward or is malformed. It never fails, which makes it
// safe inside edge gates.
func IntentsOf(state graph.State, categorizer, field string) []Intent {
	res, ok := state.Lookup(categorizer)
	if !ok || !res.Forward {
		return nil
	}
	intents, err := readIntents(map[string]graph.Result{categorizer: res}, categorizer, field)
	if err != nil {
		return nil
	}
	return intents
}

func sortedKeys(m map[string]graph.Result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
