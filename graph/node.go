package graph

import "context"

// Node represents a processing unit in the graph.
//
// A node receives a read-only snapshot of the run State and returns a Result.
// Every node in a layer sees the same snapshot; results of sibling nodes only
// become visible in the next layer.
//
// Implementations must not mutate their own configuration in Run. Values
// derived during a run (formatted prompts, parsed payloads) belong in the
// Result, which keeps one node value safe to share across concurrent runs.
type Node interface {
	// Run executes the node's logic with the given context and state.
	// Failures are reported through Result.Err and Forward=false; Run
	// should not panic, but the engine recovers if it does.
	Run(ctx context.Context, state State) Result
}

// Kind tags a node with the variant it implements. The set is closed; new
// tool integrations add a Kind rather than a new node hierarchy.
type Kind int

const (
	// KindCustom is reported for nodes that do not implement Kinded.
	KindCustom Kind = iota
	// KindPassthrough marks the start node that only seeds the first layer.
	KindPassthrough
	// KindResponse generates a categorical chat response.
	KindResponse
	// KindExtractor extracts schema-validated tool parameters.
	KindExtractor
	// KindToolSelector maps categorized intents onto extracted parameters.
	KindToolSelector
	// KindToolLookup invokes an external tool for a selected intent.
	KindToolLookup
	// KindToolResponse turns tool output into a natural-language answer.
	KindToolResponse
	// KindTerminal returns an upstream result as the run's final payload.
	KindTerminal
)

var kindNames = map[Kind]string{
	KindCustom:       "custom",
	KindPassthrough:  "passthrough",
	KindResponse:     "response",
	KindExtractor:    "extractor",
	KindToolSelector: "tool_selector",
	KindToolLookup:   "tool_lookup",
	KindToolResponse: "tool_response",
	KindTerminal:     "terminal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Kinded is implemented by nodes that report their variant.
type Kinded interface {
	Kind() Kind
}

// KindOf returns the Kind of n, or KindCustom if n does not implement Kinded.
func KindOf(n Node) Kind {
	if k, ok := n.(Kinded); ok {
		return k.Kind()
	}
	return KindCustom
}

// Result is the output of one node's Run.
type Result struct {
	// NodeName identifies the producing node. The engine fills it in when empty.
	NodeName string

	// Response is the node's payload. Its shape is a contract between the
	// producer and its consumers and is not inspected by the engine.
	Response any

	// Forward controls whether the node's successors are eligible for the
	// next layer. False prunes the branch without failing the run.
	Forward bool

	// Meta holds diagnostic data (validation status, raw payloads). It is not
	// consumed by the traversal.
	Meta map[string]any

	// YieldMessages are surfaced to the caller independently of the final result.
	YieldMessages []YieldMessage

	// Err records why the node failed. A non-nil Err forces Forward=false.
	Err error
}

// YieldMessage is an informational, out-of-band message emitted by a node.
type YieldMessage struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Info returns a YieldMessage of kind "info".
func Info(content string) YieldMessage {
	return YieldMessage{Kind: "info", Content: content}
}

// NodeFunc is a function adapter that implements the Node interface.
// It allows using plain functions as nodes without creating custom types.
//
// Example:
//
//	echo := graph.NodeFunc(func(ctx context.Context, s graph.State) graph.Result {
//	    return graph.Result{Response: s.Prompt, Forward: true}
//	})
type NodeFunc func(ctx context.Context, state State) Result

// Run implements the Node interface for NodeFunc.
func (f NodeFunc) Run(ctx context.Context, state State) Result {
	return f(ctx, state)
}

// Passthrough is the start marker. It seeds the first layer and is never run
// by the engine; calling Run directly forwards with no payload.
type Passthrough struct{}

// Run implements Node.
func (Passthrough) Run(_ context.Context, _ State) Result {
	return Result{Forward: true}
}

// Kind implements Kinded.
func (Passthrough) Kind() Kind { return KindPassthrough }
