package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/model"
	"github.com/dshills/raggraph-go/graph/schema"
)

const extractorTemplate = `You generate function parameters.
The user's intent has already been identified as "{tool_name}", so the user wants to call the "{tool_name}" function, which does the following:
{tool_description}

The "{tool_name}" function takes input matching this JSON schema:

{schema}

Respond with a JSON object like this example:

{schema_example}

Analyze the user input using the field descriptions of the schema and generate the parameters. Reply with the JSON object only.`

// ExtractorConfig describes the tool whose parameters an Extractor produces.
type ExtractorConfig struct {
	// ToolName is the intent name the prompt refers to, e.g. "web_search".
	ToolName string

	// Description says what the tool does.
	Description string

	// Schema is the JSON schema replies must satisfy.
	Schema map[string]any

	// Example is a sample reply shown to the model.
	Example string
}

// Extractor asks the model for tool parameters as JSON and validates them.
//
// It never fails on bad model output. Meta always carries:
//   - parsable: the reply held a JSON value
//   - valid: the value satisfied the schema
//   - parsed: the decoded value, nil when not parsable
//   - repaired: the JSON had to be repaired before decoding
//   - raw: the reply text
//   - system_prompt: the rendered prompt
//
// Response is the parsed value and Forward is true only when valid.
type Extractor struct {
	model  model.ChatModel
	schema *schema.Schema
	prompt string
	cfg    settings
}

// NewExtractor compiles cfg.Schema and renders the system prompt once.
func NewExtractor(m model.ChatModel, cfg ExtractorConfig, opts ...Option) (*Extractor, error) {
	if cfg.ToolName == "" {
		return nil, fmt.Errorf("extractor requires a tool name")
	}
	s, err := schema.Compile(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("extractor %s: %w", cfg.ToolName, err)
	}

	prompt := strings.NewReplacer(
		"{tool_name}", cfg.ToolName,
		"{tool_description}", cfg.Description,
		"{schema}", s.String(),
		"{schema_example}", cfg.Example,
	).Replace(extractorTemplate)

	base := model.DefaultChatOptions()
	base.JSON = true

	return &Extractor{
		model:  m,
		schema: s,
		prompt: prompt,
		cfg:    newSettings(base, opts),
	}, nil
}

// Kind implements graph.Kinded.
func (e *Extractor) Kind() graph.Kind { return graph.KindExtractor }

// SystemPrompt returns the rendered system prompt.
func (e *Extractor) SystemPrompt() string { return e.prompt }

// Run implements graph.Node.
func (e *Extractor) Run(ctx context.Context, state graph.State) graph.Result {
	meta := map[string]any{
		"parsable":      false,
		"valid":         false,
		"parsed":        nil,
		"repaired":      false,
		"system_prompt": e.prompt,
	}

	out, err := e.model.Chat(ctx, e.cfg.conversation(e.prompt, state), e.cfg.chat)
	if err != nil {
		return chatFailure(err, meta)
	}
	meta["raw"] = out.Text
	usageMeta(meta, out.Usage)

	parsed, repaired, err := schema.ParseReply(out.Text)
	if err != nil {
		meta["parse_error"] = err.Error()
		return graph.Result{Meta: meta}
	}
	meta["parsable"] = true
	meta["parsed"] = parsed
	meta["repaired"] = repaired

	valid := true
	if err := e.schema.Validate(parsed); err != nil {
		valid = false
		meta["validation_error"] = err.Error()
	}
	meta["valid"] = valid

	return graph.Result{Response: parsed, Forward: valid, Meta: meta}
}
