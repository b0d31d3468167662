package graph

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	gated := func(State) bool { return true }

	tests := []struct {
		name  string
		build func(t *testing.T) *Graph
		want  error
	}{
		{
			name: "valid",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "start", Passthrough{}, AsStart())
				mustAdd(t, g, "end", fixed(nil, true), AsEnd())
				mustConnect(t, g, "start", "end", nil)
				return g
			},
		},
		{
			name: "no start node",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "a", fixed(nil, true))
				return g
			},
			want: ErrNoStartNode,
		},
		{
			name: "two start nodes",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "a", Passthrough{}, AsStart())
				mustAdd(t, g, "b", Passthrough{}, AsStart())
				return g
			},
			want: ErrNoStartNode,
		},
		{
			name: "edge to unknown node",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "start", Passthrough{}, AsStart())
				mustConnect(t, g, "start", "ghost", nil)
				return g
			},
			want: ErrUnknownNode,
		},
		{
			name: "unconditional fan-out to two end nodes",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "start", Passthrough{}, AsStart())
				mustAdd(t, g, "e1", fixed(nil, true), AsEnd())
				mustAdd(t, g, "e2", fixed(nil, true), AsEnd())
				mustConnect(t, g, "start", "e1", nil)
				mustConnect(t, g, "start", "e2", nil)
				return g
			},
			want: ErrAmbiguousTerminal,
		},
		{
			name: "gated fan-out to two end nodes",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "start", Passthrough{}, AsStart())
				mustAdd(t, g, "e1", fixed(nil, true), AsEnd())
				mustAdd(t, g, "e2", fixed(nil, true), AsEnd())
				mustConnect(t, g, "start", "e1", gated)
				mustConnect(t, g, "start", "e2", nil)
				return g
			},
		},
		{
			name: "duplicate edge to one end node",
			build: func(t *testing.T) *Graph {
				g := New()
				mustAdd(t, g, "start", Passthrough{}, AsStart())
				mustAdd(t, g, "e1", fixed(nil, true), AsEnd())
				mustConnect(t, g, "start", "e1", nil)
				mustConnect(t, g, "start", "e1", nil)
				return g
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(t).Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected valid graph, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAdd_Errors(t *testing.T) {
	g := New()
	mustAdd(t, g, "a", fixed(nil, true))

	if err := g.Add("a", fixed(nil, true)); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
	if err := g.Add("", fixed(nil, true)); err == nil {
		t.Error("expected error for empty name")
	}
	if err := g.Add("b", nil); err == nil {
		t.Error("expected error for nil node")
	}
	if err := g.Connect("", "a", nil); err == nil {
		t.Error("expected error for empty edge endpoint")
	}
}

func TestValidate_InvalidOption(t *testing.T) {
	g := New(WithNodeTimeout(-1))
	mustAdd(t, g, "start", Passthrough{}, AsStart())

	err := g.Validate()
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != "INVALID_OPTION" {
		t.Fatalf("expected INVALID_OPTION, got %v", err)
	}
	if _, err := g.Run(t.Context(), NewState("", nil)); err == nil {
		t.Error("expected Run to refuse an invalid configuration")
	}
}

func TestGraph_Introspection(t *testing.T) {
	g := New()
	mustAdd(t, g, "start", Passthrough{}, AsStart())
	mustAdd(t, g, "b", fixed(nil, true))
	mustConnect(t, g, "start", "b", nil)

	if got := g.Nodes(); len(got) != 2 || got[0] != "start" || got[1] != "b" {
		t.Errorf("expected nodes in registration order, got %v", got)
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0].From != "start" || edges[0].To != "b" {
		t.Errorf("unexpected edges %v", edges)
	}
}
