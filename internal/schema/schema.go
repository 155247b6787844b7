// Package schema implements the JSON-schema-subset argument validation used
// by the tool registry. Validation collects every violation instead of
// stopping at the first one so callers can report complete diagnostics.
package schema

import (
	"fmt"
	"strings"
)

// Mismatch describes a single argument whose value has the wrong type.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"` // JSON schema type name
	Actual   string `json:"actual"`   // Go type of the provided value
}

// Error reports schema violations for one set of tool arguments. It is
// produced before dispatch; arguments failing validation never reach the
// tool handler.
type Error struct {
	MissingFields  []string   `json:"missing_fields,omitempty"`
	TypeMismatches []Mismatch `json:"type_mismatches,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", ")))
	}
	for _, m := range e.TypeMismatches {
		parts = append(parts, fmt.Sprintf("field '%s': expected %s, got %s", m.Field, m.Expected, m.Actual))
	}
	if len(parts) == 0 {
		return "schema validation failed"
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// Validate checks args against a minimal JSON-schema-like map (type: object,
// properties, required). It returns nil when args satisfy the schema, or an
// *Error aggregating all missing required fields and primitive type
// mismatches. Extra fields not present in the schema are allowed.
func Validate(args map[string]any, schema map[string]any) error {
	var verr Error

	required := requiredFields(schema)
	for _, field := range required {
		if _, exists := args[field]; !exists {
			verr.MissingFields = append(verr.MissingFields, field)
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for field, value := range args {
		propSchema, exists := properties[field]
		if !exists {
			continue
		}
		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}
		expected, _ := propMap["type"].(string)
		if expected == "" || validType(value, expected) {
			continue
		}
		verr.TypeMismatches = append(verr.TypeMismatches, Mismatch{
			Field:    field,
			Expected: expected,
			Actual:   fmt.Sprintf("%T", value),
		})
	}

	if len(verr.MissingFields) > 0 || len(verr.TypeMismatches) > 0 {
		return &verr
	}
	return nil
}

// requiredFields tolerates both []any (JSON decoded) and []string (hand
// written schema literals).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// validType checks a value against the expected JSON schema type.
func validType(value any, expected string) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true // unknown types are assumed valid
	}
}
