package tool

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// descriptorReflector produces inlined, reference-free schemas so the
// resulting parameter maps stay compatible with the validation subset used
// by the registry and with model provider tool definitions.
var descriptorReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// DescriptorFromStruct derives a Descriptor whose parameter schema is
// reflected from a Go struct. Field names follow json tags; `jsonschema`
// tags (description, required handling via omitempty/pointer) are honored by
// the reflector.
//
// Example:
//
//	type WeatherArgs struct {
//	  City string `json:"city" jsonschema:"description=City to look up"`
//	  Days int    `json:"days,omitempty"`
//	}
//
//	desc, err := tool.DescriptorFromStruct("get_weather", "Look up a weather forecast", WeatherArgs{})
func DescriptorFromStruct(name, description string, structType any) (Descriptor, error) {
	s := descriptorReflector.Reflect(structType)

	raw, err := json.Marshal(s)
	if err != nil {
		return Descriptor{}, fmt.Errorf("reflect schema for %s: %w", name, err)
	}

	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return Descriptor{}, fmt.Errorf("decode schema for %s: %w", name, err)
	}
	// The $schema keyword confuses some provider-side schema subsets.
	delete(params, "$schema")

	return Descriptor{Name: name, Description: description, Parameters: params}, nil
}

// MustDescriptorFromStruct is the panicking variant of DescriptorFromStruct
// for static registrations at startup.
func MustDescriptorFromStruct(name, description string, structType any) Descriptor {
	desc, err := DescriptorFromStruct(name, description, structType)
	if err != nil {
		panic(err)
	}
	return desc
}
