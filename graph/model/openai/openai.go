// Package openai adapts the OpenAI chat-completions API, and any
// OpenAI-compatible host such as DeepInfra, to model.ChatModel.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/raggraph-go/graph/model"
)

// Config configures a ChatModel.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// Model is the model name, e.g. "gpt-4o" or
	// "meta-llama/Meta-Llama-3-70B-Instruct". Defaults to gpt-3.5-turbo.
	Model string

	// BaseURL points at an OpenAI-compatible endpoint. Empty uses OpenAI.
	BaseURL string

	// SupportsJSON enables response_format=json_object when a request asks
	// for JSON.
	SupportsJSON bool

	// MaxRetries bounds the SDK's retries of transient failures.
	MaxRetries int
}

// ChatModel implements model.ChatModel on top of openai-go.
type ChatModel struct {
	modelName    string
	supportsJSON bool
	client       *openai.Client
}

// NewChatModel creates a ChatModel from cfg.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &ChatModel{
		modelName:    cfg.Model,
		supportsJSON: cfg.SupportsJSON,
		client:       &client,
	}, nil
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, opts model.ChatOptions) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	completion, err := m.client.Chat.Completions.New(ctx, m.params(messages, opts))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai %s: %w", m.modelName, err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, fmt.Errorf("openai %s: no choices in response", m.modelName)
	}

	return model.ChatOut{
		Text: completion.Choices[0].Message.Content,
		Usage: model.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

func (m *ChatModel) params(messages []model.Message, opts model.ChatOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(m.modelName),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.JSON && m.supportsJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: openai.Ptr(shared.NewResponseFormatJSONObjectParam()),
		}
	}
	return params
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
