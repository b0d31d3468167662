// Package schema validates model replies against JSON schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNotJSON is returned by ParseReply when a reply holds no JSON value.
var ErrNotJSON = errors.New("reply is not JSON")

// Schema is a compiled JSON schema. Safe for concurrent use.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Compile compiles a schema given in its decoded form, e.g.
//
//	schema.Compile(map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	        "query": map[string]any{"type": "string"},
//	    },
//	})
func Compile(def map[string]any) (*Schema, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{raw: def, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. For package-level schemas.
func MustCompile(def map[string]any) *Schema {
	s, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks v, a value decoded by encoding/json, against the schema.
func (s *Schema) Validate(v any) error {
	return s.compiled.Validate(v)
}

// String returns the schema as indented JSON, for prompts.
func (s *Schema) String() string {
	data, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", s.raw)
	}
	return string(data)
}

// ParseReply decodes the JSON value in a model reply.
//
// Markdown code fences around the value are removed. A reply that looks like
// an object or array but is malformed (trailing commas, single quotes,
// missing brackets) is repaired, and repaired reports it. Anything else
// fails with ErrNotJSON.
func ParseReply(reply string) (value any, repaired bool, err error) {
	content := stripFences(reply)
	if content == "" {
		return nil, false, ErrNotJSON
	}

	if err := json.Unmarshal([]byte(content), &value); err == nil {
		return value, false, nil
	}

	if content[0] != '{' && content[0] != '[' {
		return nil, false, ErrNotJSON
	}

	fixed, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrNotJSON, repairErr)
	}
	if err := json.Unmarshal([]byte(fixed), &value); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return value, true, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
