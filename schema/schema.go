// Package schema canonicalizes structured-output descriptors into the
// provider's required format envelope.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/aschepis/aichat/llm"
)

// FormatType is the only structured-output format type the provider accepts.
const FormatType = "json_schema"

// DefaultName is the schema name used when the raw schema does not carry one.
const DefaultName = "response"

// Format is the inner structured-output descriptor.
type Format struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// Schema is the canonical structured-output envelope:
// {format: {type: json_schema, name, schema, strict}}.
type Schema struct {
	Format Format `json:"format"`
}

// FormatMap returns the envelope's format object as a generic map, the shape
// the request builder embeds into the wire request.
func (s *Schema) FormatMap() map[string]any {
	return map[string]any{
		"type":   s.Format.Type,
		"name":   s.Format.Name,
		"schema": s.Format.Schema,
		"strict": s.Format.Strict,
	}
}

// Normalize canonicalizes a raw JSON-Schema-like value. Accepted inputs:
//
//   - *Schema / Schema: returned unchanged (idempotence).
//   - a JSON string: parsed first; parse errors surface as-is.
//   - a map already shaped {format: ...}: passed through unchanged.
//   - a map shaped {name, schema, strict} (the generator's output shape):
//     wrapped with type json_schema.
//   - any other map: treated as a bare JSON Schema and wrapped with
//     name "response" and strict true.
//
// Anything else is a SchemaError. Strict is forced true except when the
// input already carries an explicit strict value.
func Normalize(raw any) (*Schema, error) {
	switch v := raw.(type) {
	case *Schema:
		return v, nil
	case Schema:
		return &v, nil
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, &llm.SchemaError{Message: "failed to parse schema JSON", Err: err}
		}
		return Normalize(parsed)
	case map[string]any:
		return normalizeMap(v)
	default:
		return nil, &llm.SchemaError{Message: "schema must be a map, a JSON string, or an already-normalized Schema"}
	}
}

func normalizeMap(m map[string]any) (*Schema, error) {
	if format, ok := m["format"].(map[string]any); ok {
		return &Schema{Format: Format{
			Type:   stringOr(format["type"], FormatType),
			Name:   stringOr(format["name"], DefaultName),
			Schema: mapOr(format["schema"]),
			Strict: boolOr(format["strict"], true),
		}}, nil
	}

	if inner, ok := m["schema"].(map[string]any); ok {
		// The generator shape: {name, schema, strict}.
		return &Schema{Format: Format{
			Type:   FormatType,
			Name:   stringOr(m["name"], DefaultName),
			Schema: inner,
			Strict: boolOr(m["strict"], true),
		}}, nil
	}

	// A bare JSON Schema.
	return &Schema{Format: Format{
		Type:   FormatType,
		Name:   DefaultName,
		Schema: m,
		Strict: true,
	}}, nil
}

// FromType reflects a Go struct into a bare JSON Schema and normalizes it.
// Field tags follow the invopop/jsonschema conventions.
func FromType[T any](name string) (*Schema, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	var v T
	reflected := reflector.Reflect(&v)

	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, &llm.SchemaError{Message: "failed to encode reflected schema", Err: err}
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &llm.SchemaError{Message: "failed to decode reflected schema", Err: err}
	}
	delete(raw, "$schema")

	normalized, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if name != "" {
		normalized.Format.Name = name
	}
	return normalized, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func mapOr(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
