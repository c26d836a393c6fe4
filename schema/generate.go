package schema

import (
	"context"
	"encoding/json"

	"github.com/aschepis/aichat/llm"
	"github.com/aschepis/aichat/provider"
)

// generatorModel is the reasoning model used to synthesize schemas.
const generatorModel = "o4-mini"

const generatorPrompt = `You are an expert at creating JSON Schemas for Structured Outputs.

Generate a valid JSON Schema that follows these strict rules:

## OUTPUT FORMAT
Return a JSON object with this root structure:
- "name": a short snake_case identifier for the schema
- "strict": must be true
- "schema": the actual JSON Schema object

## SCHEMA REQUIREMENTS

### Critical Rules:
1. Root schema must be "type": "object" (not anyOf)
2. Set "additionalProperties": false on ALL objects (including nested ones)
3. ALL properties must be in "required" arrays (no optional fields unless using union types)
4. Always specify "items" for arrays

### Supported Types:
- string, number, boolean, integer, object, array, enum, anyOf

### Optional Fields:
To make a field optional, use union types:
- "type": ["string", "null"] for optional string
- "type": ["number", "null"] for optional number

### String Properties (use when appropriate):
- "pattern": regex pattern (e.g., "^@[a-zA-Z0-9_]+$" for usernames)
- "format": predefined formats (date-time, time, date, duration, email, hostname, ipv4, ipv6, uuid)

### Number Properties (use when appropriate):
- "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf"

### Array Properties (use when appropriate):
- "minItems", "maxItems"

### Enum Values:
Use enums for fixed sets of values:
- Example: {"type": "string", "enum": ["draft", "published", "archived"]}

### Nested Objects:
All nested objects MUST have "additionalProperties": false, complete
"required" arrays, and clear "description" fields.

### Recursive Schemas:
Support recursion using "$ref":
- Root recursion: {"$ref": "#"}
- Definition reference: {"$ref": "#/$defs/node_name"}

### Descriptions:
Add clear, helpful "description" fields for all properties to guide the model.

## CONSTRAINTS
- Max 5000 properties total, 10 levels of nesting
- Max 1000 enum values across all enums
- Total string length of all names/values cannot exceed 120,000 chars

Return ONLY the JSON object, no additional text or explanation.`

// Generate asks the provider to synthesize a JSON Schema from a
// natural-language description and returns it as pretty-printed JSON in the
// generator shape ({name, strict, schema}).
func Generate(ctx context.Context, client provider.Client, description string) (string, error) {
	req := &provider.Request{
		Model: generatorModel,
		Input: []provider.InputItem{
			{Role: string(llm.RoleSystem), Content: generatorPrompt},
			{Role: string(llm.RoleUser), Content: description},
		},
		Text:      &provider.TextConfig{Format: map[string]any{"type": "json_object"}},
		Reasoning: &provider.Reasoning{Effort: "high"},
	}

	resp, err := client.CreateResponse(ctx, req)
	if err != nil {
		return "", err
	}

	text := resp.TextOutput()
	if text == "" {
		return "", &llm.SchemaError{Message: "schema generation returned no text output"}
	}

	var generated struct {
		Name   string         `json:"name"`
		Strict bool           `json:"strict"`
		Schema map[string]any `json:"schema"`
	}
	if err := json.Unmarshal([]byte(text), &generated); err != nil {
		return "", &llm.SchemaError{Message: "failed to parse generated schema", Err: err}
	}

	pretty, err := json.MarshalIndent(map[string]any{
		"name":   generated.Name,
		"strict": generated.Strict,
		"schema": generated.Schema,
	}, "", "  ")
	if err != nil {
		return "", &llm.SchemaError{Message: "failed to encode generated schema", Err: err}
	}
	return string(pretty), nil
}
