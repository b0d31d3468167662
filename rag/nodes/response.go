package nodes

import (
	"context"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/model"
)

// Response answers the user prompt directly with a fixed system prompt.
// Its Response is the reply text.
type Response struct {
	model  model.ChatModel
	system string
	cfg    settings
}

// NewResponse creates a response node.
func NewResponse(m model.ChatModel, systemPrompt string, opts ...Option) *Response {
	return &Response{
		model:  m,
		system: systemPrompt,
		cfg:    newSettings(model.DefaultChatOptions(), opts),
	}
}

// Kind implements graph.Kinded.
func (r *Response) Kind() graph.Kind { return graph.KindResponse }

// Run implements graph.Node.
func (r *Response) Run(ctx context.Context, state graph.State) graph.Result {
	out, err := r.model.Chat(ctx, r.cfg.conversation(r.system, state), r.cfg.chat)
	if err != nil {
		return chatFailure(err, map[string]any{})
	}
	return graph.Result{
		Response: out.Text,
		Forward:  true,
		Meta:     usageMeta(map[string]any{}, out.Usage),
	}
}
