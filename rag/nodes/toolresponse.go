package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/model"
)

// ToolResponseConfig names the lookups a ToolResponse answers from.
type ToolResponseConfig struct {
	// Lookups lists candidate Lookup nodes. Those present in the previous
	// layer with a forwarded result are used, in this order.
	Lookups []string

	// SystemPrompt precedes the rendered tool output.
	SystemPrompt string
}

// ToolResponse turns raw tool output into a natural-language answer with a
// second chat call. Its Response is the reply text.
type ToolResponse struct {
	model model.ChatModel
	cfg   ToolResponseConfig
	chat  settings
}

// NewToolResponse creates a tool response node.
func NewToolResponse(m model.ChatModel, cfg ToolResponseConfig, opts ...Option) (*ToolResponse, error) {
	if len(cfg.Lookups) == 0 {
		return nil, fmt.Errorf("tool response requires at least one lookup")
	}
	return &ToolResponse{model: m, cfg: cfg, chat: newSettings(model.DefaultChatOptions(), opts)}, nil
}

// Kind implements graph.Kinded.
func (t *ToolResponse) Kind() graph.Kind { return graph.KindToolResponse }

// Run implements graph.Node.
func (t *ToolResponse) Run(ctx context.Context, state graph.State) graph.Result {
	var (
		sources  []string
		sections []string
	)
	for _, name := range t.cfg.Lookups {
		res, ok := state.Parent(name)
		if !ok || !res.Forward {
			continue
		}
		sources = append(sources, name)
		sections = append(sections, fmt.Sprintf("## %s\n%s", name, render(res.Response)))
	}
	if len(sources) == 0 {
		return upstreamFailure("none of %v produced a result", t.cfg.Lookups)
	}

	system := t.cfg.SystemPrompt + "\n\nTool results:\n\n" + strings.Join(sections, "\n\n")
	meta := map[string]any{"sources": sources, "system_prompt": system}

	out, err := t.model.Chat(ctx, t.chat.conversation(system, state), t.chat.chat)
	if err != nil {
		return chatFailure(err, meta)
	}
	return graph.Result{
		Response: out.Text,
		Forward:  true,
		Meta:     usageMeta(meta, out.Usage),
	}
}

// render prefers a tool's own "summary" field and falls back to JSON.
func render(v any) string {
	if m, ok := v.(map[string]any); ok {
		if s, ok := m["summary"].(string); ok && s != "" {
			return s
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
