// Package model provides the chat-completion abstraction used by nodes and
// its provider adapters.
package model

import "context"

// ChatModel is a chat-completion service.
//
// Implementations must be safe for concurrent use: every node of a layer may
// call the same model at once. Failures are returned as errors; nodes wrap
// them in graph.ServiceCallError.
//
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleSystem, Content: "You are a helpful assistant."},
//	    {Role: model.RoleUser, Content: "What is the capital of France?"},
//	}, model.DefaultChatOptions())
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (ChatOut, error)
}

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Standard roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOptions tunes a single completion.
type ChatOptions struct {
	// MaxTokens caps the reply length. Zero leaves the provider default.
	MaxTokens int

	// Temperature controls sampling. Zero asks for deterministic output.
	Temperature float64

	// JSON requests a JSON object reply from providers that support it.
	// Callers must still parse defensively.
	JSON bool
}

// DefaultChatOptions returns the options nodes use unless configured
// otherwise: 400 tokens at temperature 0.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{MaxTokens: 400, Temperature: 0}
}

// ChatOut is the result of a completion.
type ChatOut struct {
	// Text is the assistant reply.
	Text string

	// Usage reports token consumption when the provider returns it.
	Usage Usage
}

// Usage counts tokens of one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Conversation builds the message list of a single-shot request: the system
// prompt, then the prior history, then the user prompt.
func Conversation(system string, history []Message, prompt string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, history...)
	return append(msgs, Message{Role: RoleUser, Content: prompt})
}
