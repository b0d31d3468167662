// Package nodes implements the node variants of a RAG agent graph: chat
// responses, schema-validated parameter extraction, tool selection, tool
// lookups, tool-backed answers and terminal nodes.
//
// Every node is configured once at construction and never modified by Run,
// so one node value can serve concurrent runs.
package nodes

import (
	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/model"
)

// Intent is a user intent recognized by the categorizer. The set is closed.
type Intent string

const (
	IntentWebSearch    Intent = "web_search"
	IntentMemoryLookup Intent = "memory_lookup"
	IntentCasual       Intent = "casual"
)

// Intents lists every known intent in declaration order.
var Intents = []Intent{IntentWebSearch, IntentMemoryLookup, IntentCasual}

// Valid reports whether i is one of Intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentWebSearch, IntentMemoryLookup, IntentCasual:
		return true
	}
	return false
}

// Option tunes the chat call of nodes that talk to a model.
type Option func(*settings)

type settings struct {
	chat    model.ChatOptions
	history bool
}

func newSettings(base model.ChatOptions, opts []Option) settings {
	s := settings{chat: base, history: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithChatOptions replaces the node's completion options.
func WithChatOptions(o model.ChatOptions) Option {
	return func(s *settings) { s.chat = o }
}

// WithSampling sets the token cap and temperature while keeping the node's
// other completion options, such as the JSON reply mode of extractors.
func WithSampling(maxTokens int, temperature float64) Option {
	return func(s *settings) {
		s.chat.MaxTokens = maxTokens
		s.chat.Temperature = temperature
	}
}

// WithoutHistory sends only the system prompt and the user prompt, dropping
// the conversation history.
func WithoutHistory() Option {
	return func(s *settings) { s.history = false }
}

func (s settings) conversation(system string, state graph.State) []model.Message {
	var history []model.Message
	if s.history {
		history = make([]model.Message, len(state.MessageHistory))
		for i, m := range state.MessageHistory {
			history[i] = model.Message{Role: m.Role, Content: m.Content}
		}
	}
	return model.Conversation(system, history, state.Prompt)
}

func usageMeta(meta map[string]any, u model.Usage) map[string]any {
	meta["input_tokens"] = u.InputTokens
	meta["output_tokens"] = u.OutputTokens
	return meta
}

func chatFailure(err error, meta map[string]any) graph.Result {
	return graph.Result{Meta: meta, Err: &graph.ServiceCallError{Service: "chat", Err: err}}
}

func upstreamFailure(format string, args ...any) graph.Result {
	return graph.Result{Err: graph.Failf("", graph.ErrInvalidUpstreamResult, format, args...)}
}
