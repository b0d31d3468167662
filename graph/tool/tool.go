// Package tool provides the external capabilities lookup nodes call:
// web search, page fetching and conversation memory.
package tool

import (
	"context"
	"fmt"
)

// Tool is a named capability invoked with parameters extracted by an LLM.
//
// Input and output are plain JSON-shaped maps so extracted parameters can be
// passed through unchanged and results can be rendered back into a prompt.
//
// Implementations should:
//   - Check ctx.Err() before expensive operations
//   - Return descriptive errors for missing or ill-typed input
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the identifier the tool is selected by, such as
	// "web_search" or "memory_lookup".
	Name() string

	// Call executes the tool.
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// stringParam reads a required non-empty string parameter.
func stringParam(input map[string]interface{}, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", fmt.Errorf("%s parameter required", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s parameter must be a non-empty string, got %T", key, v)
	}
	return s, nil
}
