package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/emit"
	"github.com/dshills/raggraph-go/graph/model"
	"github.com/dshills/raggraph-go/graph/store"
	"github.com/dshills/raggraph-go/graph/tool"
	"github.com/dshills/raggraph-go/rag/nodes"
)

// fakeModel answers each node of the agent by recognizing its system prompt.
func fakeModel(intents string) *model.MockChatModel {
	return &model.MockChatModel{
		Respond: func(msgs []model.Message) (model.ChatOut, error) {
			system := msgs[0].Content
			switch {
			case strings.Contains(system, `identified as "web_search"`):
				return model.ChatOut{Text: `{"query": "weather in Paris"}`}, nil
			case strings.Contains(system, `identified as "memory_lookup"`):
				return model.ChatOut{Text: `{"description": "my cat"}`}, nil
			case strings.Contains(system, `identified as "intent_categorizer"`):
				return model.ChatOut{Text: intents}, nil
			case system == casualPrompt:
				return model.ChatOut{Text: "Hey, good to see you!"}, nil
			case strings.HasPrefix(system, toolResponsePrompt):
				return model.ChatOut{Text: "answer from tools"}, nil
			}
			return model.ChatOut{}, errors.New("unexpected prompt")
		},
	}
}

type fixture struct {
	model  *model.MockChatModel
	search *tool.MockTool
	memory *tool.MockTool
	events *emit.BufferedEmitter
	graph  *graph.Graph
}

func newFixture(t *testing.T, intents string) *fixture {
	t.Helper()
	f := &fixture{
		model:  fakeModel(intents),
		search: &tool.MockTool{ToolName: "web_search", Responses: []map[string]any{{"summary": "Abstract: 18C and sunny"}}},
		memory: &tool.MockTool{ToolName: "memory_lookup", Responses: []map[string]any{{"summary": "user: my cat is Tom"}}},
		events: emit.NewBufferedEmitter(),
	}
	g, err := NewHAL9004(Deps{
		Model:        f.model,
		Search:       f.search,
		Memory:       f.memory,
		GraphOptions: []graph.Option{graph.WithEmitter(f.events)},
	})
	require.NoError(t, err)
	f.graph = g
	return f
}

func TestHAL9004_Casual(t *testing.T) {
	f := newFixture(t, `{"intends": ["casual"]}`)

	out, err := f.graph.Run(context.Background(), graph.NewState("hi there", nil))
	require.NoError(t, err)

	assert.Equal(t, "Hey, good to see you!", out.Response)
	assert.Equal(t, 3, out.Layers)
	assert.Equal(t, []graph.YieldMessage{
		graph.Info("Selected tools: [casual]"),
		graph.Info(`Tool parameters: {"CasualResponse":"Hey, good to see you!"}`),
	}, out.Messages)

	assert.Zero(t, f.search.CallCount())
	assert.Zero(t, f.memory.CallCount())
	_, ran := out.State.Lookup(WebSearchLookup)
	assert.False(t, ran, "web search branch must stay disabled")
	assert.Equal(t, []string{EndNode}, keys(out.State.ParentResults))
	assert.Equal(t, 4, f.model.CallCount())
}

func TestHAL9004_WebSearch(t *testing.T) {
	f := newFixture(t, `{"intends": ["web_search"]}`)

	out, err := f.graph.Run(context.Background(), graph.NewState("weather in Paris?", nil))
	require.NoError(t, err)

	assert.Equal(t, "answer from tools", out.Response)
	assert.Equal(t, 4, out.Layers)
	require.Equal(t, 1, f.search.CallCount())
	assert.Equal(t, map[string]any{"query": "weather in Paris"}, f.search.Calls[0].Input)
	assert.Zero(t, f.memory.CallCount())

	_, casualEnd := out.State.Lookup(EndNode)
	assert.False(t, casualEnd)

	res, ok := out.State.Lookup(ToolResponse)
	require.True(t, ok)
	assert.Equal(t, []string{WebSearchLookup}, res.Meta["sources"])
}

func TestHAL9004_WebAndMemory(t *testing.T) {
	f := newFixture(t, `{"intends": ["web_search", "memory_lookup"]}`)

	out, err := f.graph.Run(context.Background(), graph.NewState("is it cat weather?", nil))
	require.NoError(t, err)

	assert.Equal(t, "answer from tools", out.Response)
	assert.Equal(t, 1, f.search.CallCount())
	assert.Equal(t, 1, f.memory.CallCount())
	assert.Equal(t, map[string]any{"description": "my cat"}, f.memory.Calls[0].Input)

	res, _ := out.State.Lookup(ToolResponse)
	assert.Equal(t, []string{WebSearchLookup, MemoryLookup}, res.Meta["sources"])
}

func TestHAL9004_BadCategorizerPrunes(t *testing.T) {
	f := newFixture(t, "I think they want the weather")

	out, err := f.graph.Run(context.Background(), graph.NewState("weather?", nil))
	require.NoError(t, err)

	assert.Nil(t, out.Response)
	sel, ok := out.State.Parent(ToolSelector)
	require.True(t, ok)
	assert.ErrorIs(t, sel.Err, graph.ErrInvalidUpstreamResult)
	assert.Zero(t, f.search.CallCount())

	failed := f.events.GetHistoryWithFilter(out.RunID, emit.HistoryFilter{Msg: "node_failed"})
	require.Len(t, failed, 1)
	assert.Equal(t, ToolSelector, failed[0].NodeID)
}

func TestHAL9004_SearchFailure(t *testing.T) {
	f := newFixture(t, `{"intends": ["web_search"]}`)
	f.search.Err = errors.New("dns failure")

	out, err := f.graph.Run(context.Background(), graph.NewState("weather?", nil))
	require.NoError(t, err)

	res, ok := out.State.Parent(WebSearchLookup)
	require.True(t, ok)
	var sce *graph.ServiceCallError
	require.ErrorAs(t, res.Err, &sce)
	assert.Equal(t, WebSearchLookup, sce.NodeID)
	assert.Nil(t, out.Response)
}

func TestHAL9004_RealMemoryTool(t *testing.T) {
	mem := store.NewMemStore()
	require.NoError(t, mem.Save(context.Background(), store.Entry{Role: "user", Content: "my cat is called Tom"}))

	m := fakeModel(`{"intends": ["memory_lookup"]}`)
	g, err := NewHAL9004(Deps{
		Model:  m,
		Search: &tool.MockTool{ToolName: "web_search"},
		Memory: tool.NewMemoryLookup(mem, 3),
	})
	require.NoError(t, err)

	out, err := g.Run(context.Background(), graph.NewState("what is my cat called?", nil))
	require.NoError(t, err)
	assert.Equal(t, "answer from tools", out.Response)

	var system string
	for _, call := range m.Calls {
		if strings.HasPrefix(call.Messages[0].Content, toolResponsePrompt) {
			system = call.Messages[0].Content
		}
	}
	assert.Contains(t, system, "user: my cat is called Tom")
}

func TestHAL9004_Structure(t *testing.T) {
	f := newFixture(t, `{"intends": ["casual"]}`)

	assert.Equal(t, []string{
		StartNode, WebExtract, CasualResponse, MemoryExtract, ToolUsageCategorizer,
		ToolSelector, WebSearchLookup, MemoryLookup, ToolResponse, EndNode,
	}, f.graph.Nodes())
	assert.Len(t, f.graph.Edges(), 13)
	require.NoError(t, f.graph.Validate())
}

func TestNewHAL9004_MissingDeps(t *testing.T) {
	_, err := NewHAL9004(Deps{})
	require.Error(t, err)

	_, err = NewHAL9004(Deps{Model: &model.MockChatModel{}, Search: &tool.MockTool{}})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	b, err := Lookup(HAL9004Name)
	require.NoError(t, err)
	require.NotNil(t, b)

	_, err = Lookup("hal9000")
	require.ErrorIs(t, err, ErrUnknownAgent)

	assert.Equal(t, []string{HAL9004Name}, Names())
}

func TestGates(t *testing.T) {
	state := func(resp any, forward bool) graph.State {
		s := graph.NewState("p", nil)
		s.AllResults = map[string]graph.Result{ToolUsageCategorizer: {Response: resp, Forward: forward}}
		return s
	}
	web := IntentSelected(ToolUsageCategorizer, nodes.IntentWebSearch)
	casual := CasualOnly(ToolUsageCategorizer)

	tests := []struct {
		name   string
		state  graph.State
		web    bool
		casual bool
	}{
		{"casual only", state(map[string]any{"intends": []any{"casual"}}, true), false, true},
		{"web search", state(map[string]any{"intends": []any{"web_search"}}, true), true, false},
		{"casual with web", state(map[string]any{"intends": []any{"casual", "web_search"}}, true), true, false},
		{"categorizer pruned", state(map[string]any{"intends": []any{"casual"}}, false), false, false},
		{"malformed", state("casual", true), false, false},
		{"missing", graph.NewState("p", nil), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.web, web(tt.state))
			assert.Equal(t, tt.casual, casual(tt.state))
		})
	}
}

func keys(m map[string]graph.Result) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
