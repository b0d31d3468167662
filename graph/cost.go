package graph

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// ModelPricing defines input and output token costs for a chat model.
// Prices are in USD per 1M tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Static pricing for the models in model.DefaultRegistry.
//
// Note: Prices subject to change. Use SetPricing for custom deployments.
var defaultModelPricing = map[string]ModelPricing{
	// DeepInfra hosted open models
	"meta-llama/Meta-Llama-3-70B-Instruct": {
		InputPer1M:  0.35,
		OutputPer1M: 0.40,
	},
	"meta-llama/Meta-Llama-3-8B-Instruct": {
		InputPer1M:  0.03,
		OutputPer1M: 0.06,
	},
	"databricks/dbrx-instruct": {
		InputPer1M:  0.60,
		OutputPer1M: 0.60,
	},
	"cognitivecomputations/dolphin-2.6-mixtral-8x7b": {
		InputPer1M:  0.24,
		OutputPer1M: 0.24,
	},

	// OpenAI
	"gpt-4o": {
		InputPer1M:  2.50,
		OutputPer1M: 10.00,
	},
	"gpt-4-turbo": {
		InputPer1M:  10.00,
		OutputPer1M: 30.00,
	},
	"gpt-3.5-turbo": {
		InputPer1M:  0.50,
		OutputPer1M: 1.50,
	},

	// Anthropic
	"claude-3-5-sonnet-latest": {
		InputPer1M:  3.00,
		OutputPer1M: 15.00,
	},

	// Google
	"gemini-2.5-flash": {
		InputPer1M:  0.30,
		OutputPer1M: 2.50,
	},
}

// LLMCall is one chat completion made by a node.
type LLMCall struct {
	Model        string
	NodeID       string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
}

// CostTracker accumulates token usage and cost of the chat calls made by
// graph nodes.
//
// Nodes report usage through their result Meta ("input_tokens" and
// "output_tokens"); a Graph configured WithCostTracker records every result
// that carries them. Models missing from the pricing table are counted with
// zero cost.
//
// Usage:
//
//	tracker := graph.NewCostTracker("gpt-4o")
//	g := graph.New(graph.WithCostTracker(tracker))
//	...
//	in, out := tracker.TokenUsage()
//	fmt.Printf("%d/%d tokens, $%.4f\n", in, out, tracker.TotalCost())
//
// Safe for concurrent use. A nil tracker ignores every call.
type CostTracker struct {
	model   string
	pricing map[string]ModelPricing

	mu           sync.RWMutex
	calls        []LLMCall
	total        float64
	byNode       map[string]float64
	inputTokens  int64
	outputTokens int64
}

// NewCostTracker creates a tracker attributing node usage to model.
func NewCostTracker(model string) *CostTracker {
	return &CostTracker{
		model:   model,
		pricing: maps.Clone(defaultModelPricing),
		byNode:  make(map[string]float64),
	}
}

// RecordNode records the usage carried by a node result, if any.
func (ct *CostTracker) RecordNode(nodeID string, res Result) {
	if ct == nil {
		return
	}
	in, inOK := res.Meta["input_tokens"].(int)
	out, outOK := res.Meta["output_tokens"].(int)
	if !inOK && !outOK {
		return
	}
	ct.RecordCall(ct.model, in, out, nodeID)
}

// RecordCall records a single chat completion and returns its cost.
//
// Cost: (inputTokens * inputPrice + outputTokens * outputPrice) / 1M
func (ct *CostTracker) RecordCall(model string, inputTokens, outputTokens int, nodeID string) float64 {
	if ct == nil {
		return 0
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.pricing[model]
	cost := float64(inputTokens)/1_000_000.0*pricing.InputPer1M +
		float64(outputTokens)/1_000_000.0*pricing.OutputPer1M

	ct.calls = append(ct.calls, LLMCall{
		Model:        model,
		NodeID:       nodeID,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
	})
	ct.total += cost
	ct.byNode[nodeID] += cost
	ct.inputTokens += int64(inputTokens)
	ct.outputTokens += int64(outputTokens)
	return cost
}

// TotalCost returns the cumulative cost in USD.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.total
}

// CostByNode returns a copy of the cost attributed to each node.
func (ct *CostTracker) CostByNode() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return maps.Clone(ct.byNode)
}

// Calls returns the recorded calls in recording order.
func (ct *CostTracker) Calls() []LLMCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return slices.Clone(ct.calls)
}

// TokenUsage returns total input and output token counts.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inputTokens, ct.outputTokens
}

// SetPricing overrides the pricing of one model.
func (ct *CostTracker) SetPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

// Reset clears recorded usage. Pricing is preserved.
func (ct *CostTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.calls = nil
	ct.total = 0
	ct.byNode = make(map[string]float64)
	ct.inputTokens = 0
	ct.outputTokens = 0
}

// String returns a human-readable summary.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return fmt.Sprintf("CostTracker{Model: %s, Calls: %d, TotalCost: $%.4f, InputTokens: %d, OutputTokens: %d}",
		ct.model, len(ct.calls), ct.total, ct.inputTokens, ct.outputTokens)
}
