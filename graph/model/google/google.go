// Package google adapts Gemini models to model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/raggraph-go/graph/model"
)

// ChatModel implements model.ChatModel on top of generative-ai-go.
type ChatModel struct {
	modelName string
	client    googleClient
}

// googleClient is the seam between the adapter and the SDK.
type googleClient interface {
	generateContent(ctx context.Context, req request) (*genai.GenerateContentResponse, error)
}

type request struct {
	model   string
	system  string
	parts   []genai.Part
	options model.ChatOptions
}

// NewChatModel creates a ChatModel.
func NewChatModel(apiKey, modelName string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey},
	}, nil
}

// Chat implements model.ChatModel. System messages become the model's system
// instruction; the remaining turns are sent as content parts.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, opts model.ChatOptions) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, parts := convertMessages(messages)
	resp, err := m.client.generateContent(ctx, request{
		model:   m.modelName,
		system:  system,
		parts:   parts,
		options: opts,
	})
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google %s: %w", m.modelName, err)
	}
	return convertResponse(resp)
}

type defaultClient struct {
	apiKey string
}

func (c *defaultClient) generateContent(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(req.model)
	if req.system != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
	}
	genModel.SetTemperature(float32(req.options.Temperature))
	if req.options.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(req.options.MaxTokens))
	}
	if req.options.JSON {
		genModel.ResponseMIMEType = "application/json"
	}

	return genModel.GenerateContent(ctx, req.parts...)
}

func convertMessages(messages []model.Message) (string, []genai.Part) {
	var system []string
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return strings.Join(system, "\n\n"), parts
}

func convertResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	out := model.ChatOut{}
	if resp == nil || len(resp.Candidates) == 0 {
		return out, errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return out, &SafetyFilterError{reason: candidate.FinishReason.String()}
	}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				if out.Text != "" {
					out.Text += "\n"
				}
				out.Text += string(text)
			}
		}
	}

	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// SafetyFilterError reports a reply withheld by Gemini's safety filters.
type SafetyFilterError struct {
	reason string
}

func (e *SafetyFilterError) Error() string {
	return "content blocked by safety filter: " + e.reason
}

// Reason returns the finish reason reported by the API.
func (e *SafetyFilterError) Reason() string {
	return e.reason
}
