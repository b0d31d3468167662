package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/raggraph-go/graph/store"
)

func TestMemoryLookup_Call(t *testing.T) {
	mem := store.NewMemStore()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, content := range []string{"My cat is called Tom", "I like green tea", "Tom the cat hates rain"} {
		if err := mem.Save(context.Background(), store.Entry{
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	lookup := NewMemoryLookup(mem, 0)
	if lookup.Name() != "memory_lookup" {
		t.Errorf("expected name memory_lookup, got %q", lookup.Name())
	}

	out, err := lookup.Call(context.Background(), map[string]interface{}{"description": "cat Tom"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	memories, ok := out["memories"].([]map[string]interface{})
	if !ok {
		t.Fatalf("expected memories slice, got %T", out["memories"])
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(memories))
	}
	if memories[0]["content"] != "Tom the cat hates rain" {
		t.Errorf("expected newest cat memory first, got %v", memories[0]["content"])
	}
	summary, _ := out["summary"].(string)
	if !strings.HasPrefix(summary, "user: Tom the cat hates rain\n") {
		t.Errorf("unexpected summary %q", summary)
	}
}

func TestMemoryLookup_NoMatches(t *testing.T) {
	lookup := NewMemoryLookup(store.NewMemStore(), 3)

	out, err := lookup.Call(context.Background(), map[string]interface{}{"description": "anything"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out["summary"] != "No memories found for this description." {
		t.Errorf("unexpected summary %q", out["summary"])
	}
}

func TestMemoryLookup_StoreError(t *testing.T) {
	mem := store.NewMemStore()
	_ = mem.Close()

	_, err := NewMemoryLookup(mem, 1).Call(context.Background(), map[string]interface{}{"description": "cat"})
	if !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMockTool(t *testing.T) {
	mock := &MockTool{
		ToolName: "web_search",
		Responses: []map[string]interface{}{
			{"n": 1},
			{"n": 2},
		},
	}

	for _, want := range []int{1, 2, 2} {
		out, err := mock.Call(context.Background(), map[string]interface{}{"query": "q"})
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if out["n"] != want {
			t.Errorf("expected n=%d, got %v", want, out["n"])
		}
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}

	mock.Reset()
	if mock.CallCount() != 0 {
		t.Errorf("expected 0 calls after Reset, got %d", mock.CallCount())
	}

	mock.Err = errors.New("boom")
	if _, err := mock.Call(context.Background(), nil); err == nil {
		t.Error("expected configured error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Call(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
