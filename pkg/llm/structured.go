package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StripCodeFence removes a surrounding ``` fence (with optional language tag)
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the span from the first '{' to the last '}'
func ExtractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// StructuredDecoder recovers a JSON object from free-form model output and
// validates it against a schema before decoding.
type StructuredDecoder struct {
	schema *jsonschema.Schema
}

func NewStructuredDecoder(name, schemaJSON string) (*StructuredDecoder, error) {
	schema, err := jsonschema.CompileString(name, schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &StructuredDecoder{schema: schema}, nil
}

func MustStructuredDecoder(name, schemaJSON string) *StructuredDecoder {
	d, err := NewStructuredDecoder(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return d
}

// Decode fails with ErrMalformedOutput when raw holds no valid object
func (d *StructuredDecoder) Decode(raw string, v any) error {
	cleaned := StripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	jsonText := ExtractJSONObject(cleaned)
	if jsonText == "" {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}

	var payload any
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if d.schema != nil {
		if err := d.schema.Validate(payload); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}
	if err := json.Unmarshal([]byte(jsonText), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
