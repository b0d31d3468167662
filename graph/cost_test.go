package graph

import (
	"context"
	"math"
	"strings"
	"testing"
)

func usageNode(resp string, in, out int) Node {
	return NodeFunc(func(_ context.Context, _ State) Result {
		return Result{
			Response: resp,
			Forward:  true,
			Meta:     map[string]any{"input_tokens": in, "output_tokens": out},
		}
	})
}

func TestCostTracker_RecordsNodeUsage(t *testing.T) {
	tracker := NewCostTracker("gpt-4o")

	g := New(WithCostTracker(tracker))
	mustAdd(t, g, "start", Passthrough{}, AsStart())
	mustAdd(t, g, "A", usageNode("a", 1000, 500))
	mustAdd(t, g, "B", fixed("b", true))
	mustAdd(t, g, "end", usageNode("e", 2000, 0), AsEnd())
	mustConnect(t, g, "start", "A", nil)
	mustConnect(t, g, "start", "B", nil)
	mustConnect(t, g, "A", "end", nil)

	if _, err := g.Run(context.Background(), NewState("", nil)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	in, out := tracker.TokenUsage()
	if in != 3000 || out != 500 {
		t.Errorf("expected 3000/500 tokens, got %d/%d", in, out)
	}
	if got := len(tracker.Calls()); got != 2 {
		t.Errorf("expected 2 calls (B reports no usage), got %d", got)
	}

	// gpt-4o: 3000 * 2.50/1M + 500 * 10.00/1M
	if got := tracker.TotalCost(); math.Abs(got-0.0125) > 1e-9 {
		t.Errorf("expected total cost 0.0125, got %v", got)
	}
	byNode := tracker.CostByNode()
	if math.Abs(byNode["end"]-0.005) > 1e-9 {
		t.Errorf("expected end to cost 0.005, got %v", byNode["end"])
	}
}

func TestCostTracker_UnknownModelIsFree(t *testing.T) {
	tracker := NewCostTracker("local-llama")
	if cost := tracker.RecordCall("local-llama", 100, 100, "n"); cost != 0 {
		t.Errorf("expected zero cost, got %v", cost)
	}
	if in, out := tracker.TokenUsage(); in != 100 || out != 100 {
		t.Errorf("expected tokens still counted, got %d/%d", in, out)
	}

	tracker.SetPricing("local-llama", 1, 1)
	if cost := tracker.RecordCall("local-llama", 1_000_000, 0, "n"); cost != 1 {
		t.Errorf("expected custom pricing to apply, got %v", cost)
	}
}

func TestCostTracker_ResetAndString(t *testing.T) {
	tracker := NewCostTracker("gpt-4o")
	tracker.RecordCall("gpt-4o", 10, 10, "n")
	if !strings.Contains(tracker.String(), "Calls: 1") {
		t.Errorf("unexpected summary %q", tracker.String())
	}

	tracker.Reset()
	if in, out := tracker.TokenUsage(); in != 0 || out != 0 || tracker.TotalCost() != 0 {
		t.Errorf("expected empty tracker after Reset, got %s", tracker)
	}
	if len(tracker.CostByNode()) != 0 {
		t.Error("expected no per-node costs after Reset")
	}
}

func TestCostTracker_NilSafe(t *testing.T) {
	var tracker *CostTracker
	tracker.RecordNode("n", Result{Meta: map[string]any{"input_tokens": 1}})
	if cost := tracker.RecordCall("gpt-4o", 1, 1, "n"); cost != 0 {
		t.Errorf("expected nil tracker to ignore calls, got %v", cost)
	}
}
