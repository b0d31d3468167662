package graph

import (
	"context"
	"errors"
	"testing"
)

func TestExecuteNode_AttributesErrors(t *testing.T) {
	t.Run("node error", func(t *testing.T) {
		node := NodeFunc(func(ctx context.Context, s State) Result {
			return Result{Forward: true, Err: Failf("", ErrToolNotSelected, "not selected")}
		})

		res := executeNode(context.Background(), "Lookup", node, NewState("p", nil), 0)

		var ne *NodeError
		if !errors.As(res.Err, &ne) {
			t.Fatalf("expected *NodeError, got %T", res.Err)
		}
		if ne.NodeID != "Lookup" {
			t.Errorf("expected NodeID Lookup, got %q", ne.NodeID)
		}
		if res.Forward {
			t.Error("expected Forward=false")
		}
		if res.Meta["error"] != "node Lookup: not selected" {
			t.Errorf("unexpected meta error %v", res.Meta["error"])
		}
	})

	t.Run("service error", func(t *testing.T) {
		node := NodeFunc(func(ctx context.Context, s State) Result {
			return Result{Err: &ServiceCallError{Service: "chat", Err: errors.New("down")}}
		})

		res := executeNode(context.Background(), "Casual", node, NewState("p", nil), 0)

		var se *ServiceCallError
		if !errors.As(res.Err, &se) {
			t.Fatalf("expected *ServiceCallError, got %T", res.Err)
		}
		if se.NodeID != "Casual" {
			t.Errorf("expected NodeID Casual, got %q", se.NodeID)
		}
	})

	t.Run("explicit id kept", func(t *testing.T) {
		node := NodeFunc(func(ctx context.Context, s State) Result {
			return Result{Err: Failf("inner", ErrInvalidUpstreamResult, "bad")}
		})

		res := executeNode(context.Background(), "Outer", node, NewState("p", nil), 0)

		var ne *NodeError
		if !errors.As(res.Err, &ne) || ne.NodeID != "inner" {
			t.Errorf("expected NodeID inner to be kept, got %v", res.Err)
		}
	})
}

func TestExecuteNode_SharedErrorNotModified(t *testing.T) {
	shared := &ServiceCallError{Service: "web_search", Err: errors.New("rate limited")}
	node := NodeFunc(func(context.Context, State) Result {
		return Result{Err: shared}
	})

	first := executeNode(context.Background(), "WebSearchLookup", node, NewState("p", nil), 0)
	second := executeNode(context.Background(), "MemoryLookup", node, NewState("p", nil), 0)

	if shared.NodeID != "" {
		t.Errorf("expected shared error untouched, got NodeID %q", shared.NodeID)
	}
	for want, res := range map[string]Result{"WebSearchLookup": first, "MemoryLookup": second} {
		var se *ServiceCallError
		if !errors.As(res.Err, &se) || se.NodeID != want {
			t.Errorf("expected NodeID %s, got %v", want, res.Err)
		}
		if se != nil && se.Err != shared.Err {
			t.Errorf("expected cause to be preserved, got %v", res.Err)
		}
	}
}
