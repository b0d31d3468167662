package agents

import (
	"fmt"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/rag/nodes"
)

// HAL9004Name is the registry name of the HAL9004 agent.
const HAL9004Name = "hal9004_rag"

// Node names of the HAL9004 graph.
const (
	StartNode            = "StartNode"
	WebExtract           = "WebExtract"
	CasualResponse       = "CasualResponse"
	MemoryExtract        = "MemoryExtract"
	ToolUsageCategorizer = "ToolUsageCategorizer"
	ToolSelector         = "ToolSelector"
	WebSearchLookup      = "WebSearchLookup"
	MemoryLookup         = "MemoryLookup"
	ToolResponse         = "ToolResponse"
	EndNode              = "EndNode"
)

const (
	casualPrompt = "You are a highly intelligent and charismatic AI. Answer the user's prompt precisely, but keep it casual."

	toolResponsePrompt = "You are a helpful AI. Answer the user's prompt using the tool results below. " +
		"Mention sources when the results name them, and say so plainly when the results do not contain the answer."

	webSearchDescription = "The web search function searches the web for the given query. " +
		"It is especially useful when the user asks for current information."

	memoryDescription = "The memory lookup function searches the bot's memory for the given description. " +
		"It is especially useful when the user wants to recall a previous conversation or information."

	categorizerDescription = `The intent categorizer function lists every intent the user has. The intents are:

- web_search: ` + webSearchDescription + `
- memory_lookup: ` + memoryDescription + `
- casual: a casual conversation with the bot, for when the user just wants to chat.

casual can only be used on its own, never together with the other intents.`
)

var (
	webSearchSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []any{"query"},
	}

	memorySchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "A clear memory lookup description",
			},
		},
		"required": []any{"description"},
	}

	categorizerSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intends": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
					"enum": []any{string(nodes.IntentWebSearch), string(nodes.IntentMemoryLookup), string(nodes.IntentCasual)},
				},
				"minItems":    1,
				"description": "List of user intents",
			},
		},
		"required": []any{"intends"},
	}
)

// NewHAL9004 builds the HAL9004 retrieval agent:
//
//	StartNode -> {WebExtract, CasualResponse, MemoryExtract, ToolUsageCategorizer}
//	          -> ToolSelector
//	          -> WebSearchLookup (web_search selected)  -> ToolResponse [end]
//	          -> MemoryLookup    (memory_lookup selected) -> ToolResponse [end]
//	          -> EndNode         (casual only)          [end]
//
// The first layer extracts parameters for every intent in parallel while the
// categorizer decides which of them apply. Both lookups feed one ToolResponse
// so selecting web_search and memory_lookup together still ends in a single
// answer.
func NewHAL9004(deps Deps) (*graph.Graph, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	opts := deps.NodeOptions

	webExtract, err := nodes.NewExtractor(deps.Model, nodes.ExtractorConfig{
		ToolName:    string(nodes.IntentWebSearch),
		Description: webSearchDescription,
		Schema:      webSearchSchema,
		Example:     `{"query": "the user's search query"}`,
	}, opts...)
	if err != nil {
		return nil, err
	}
	memoryExtract, err := nodes.NewExtractor(deps.Model, nodes.ExtractorConfig{
		ToolName:    string(nodes.IntentMemoryLookup),
		Description: memoryDescription,
		Schema:      memorySchema,
		Example:     `{"description": "the user's memory lookup description"}`,
	}, opts...)
	if err != nil {
		return nil, err
	}
	categorizer, err := nodes.NewExtractor(deps.Model, nodes.ExtractorConfig{
		ToolName:    "intent_categorizer",
		Description: categorizerDescription,
		Schema:      categorizerSchema,
		Example:     `{"intends": ["web_search"]}`,
	}, opts...)
	if err != nil {
		return nil, err
	}
	selector, err := nodes.NewToolSelector(nodes.SelectorConfig{
		Categorizer: ToolUsageCategorizer,
		Routes: map[nodes.Intent]string{
			nodes.IntentWebSearch:    WebExtract,
			nodes.IntentMemoryLookup: MemoryExtract,
			nodes.IntentCasual:       CasualResponse,
		},
	})
	if err != nil {
		return nil, err
	}
	webLookup, err := nodes.NewLookup(nodes.LookupConfig{
		Intent:     nodes.IntentWebSearch,
		Selector:   ToolSelector,
		ParamsFrom: WebExtract,
		Tool:       deps.Search,
	})
	if err != nil {
		return nil, err
	}
	memoryLookup, err := nodes.NewLookup(nodes.LookupConfig{
		Intent:     nodes.IntentMemoryLookup,
		Selector:   ToolSelector,
		ParamsFrom: MemoryExtract,
		Tool:       deps.Memory,
	})
	if err != nil {
		return nil, err
	}
	toolResponse, err := nodes.NewToolResponse(deps.Model, nodes.ToolResponseConfig{
		Lookups:      []string{WebSearchLookup, MemoryLookup},
		SystemPrompt: toolResponsePrompt,
	}, opts...)
	if err != nil {
		return nil, err
	}

	g := graph.New(deps.GraphOptions...)

	adds := []struct {
		name string
		node graph.Node
		opts []graph.NodeOption
	}{
		{StartNode, graph.Passthrough{}, []graph.NodeOption{graph.AsStart()}},
		{WebExtract, webExtract, nil},
		{CasualResponse, nodes.NewResponse(deps.Model, casualPrompt, opts...), nil},
		{MemoryExtract, memoryExtract, nil},
		{ToolUsageCategorizer, categorizer, nil},
		{ToolSelector, selector, nil},
		{WebSearchLookup, webLookup, nil},
		{MemoryLookup, memoryLookup, nil},
		{ToolResponse, toolResponse, []graph.NodeOption{graph.AsEnd()}},
		{EndNode, nodes.NewTerminal(CasualResponse), []graph.NodeOption{graph.AsEnd()}},
	}
	for _, a := range adds {
		if err := g.Add(a.name, a.node, a.opts...); err != nil {
			return nil, err
		}
	}

	edges := []graph.Edge{
		{From: StartNode, To: WebExtract},
		{From: StartNode, To: CasualResponse},
		{From: StartNode, To: MemoryExtract},
		{From: StartNode, To: ToolUsageCategorizer},

		{From: WebExtract, To: ToolSelector},
		{From: ToolUsageCategorizer, To: ToolSelector},
		{From: MemoryExtract, To: ToolSelector},
		{From: CasualResponse, To: ToolSelector},

		{From: ToolSelector, To: WebSearchLookup, Gate: IntentSelected(ToolUsageCategorizer, nodes.IntentWebSearch)},
		{From: ToolSelector, To: MemoryLookup, Gate: IntentSelected(ToolUsageCategorizer, nodes.IntentMemoryLookup)},
		{From: ToolSelector, To: EndNode, Gate: CasualOnly(ToolUsageCategorizer)},

		{From: WebSearchLookup, To: ToolResponse},
		{From: MemoryLookup, To: ToolResponse},
	}
	for _, e := range edges {
		if err := g.Connect(e.From, e.To, e.Gate); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", HAL9004Name, err)
	}
	return g, nil
}
