// Package schema infers JSON Schemas for tool inputs and validates call arguments.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is a JSON Schema document.
type Schema = jsonschema.Schema

// Option adjusts an inferred schema before it is resolved.
type Option func(*Schema)

// Enum restricts a top-level property to the given values.
func Enum(property string, values ...any) Option {
	return func(s *Schema) {
		if prop, ok := s.Properties[property]; ok {
			prop.Enum = values
		}
	}
}

// Input is an inferred and resolved input schema.
type Input struct {
	schema   *Schema
	resolved *jsonschema.Resolved
}

// For infers the input schema of T. Fields without omitempty are required,
// and the jsonschema struct tag becomes the property description.
func For[T any](opts ...Option) (*Input, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("infer schema: %w", err)
	}
	// Extra arguments are tolerated.
	s.AdditionalProperties = nil
	for _, opt := range opts {
		opt(s)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	return &Input{schema: s, resolved: resolved}, nil
}

// Schema returns the schema advertised in tool descriptors.
func (in *Input) Schema() *Schema {
	return in.schema
}

// Validate checks raw arguments against the schema. Absent arguments are
// validated as an empty object.
func (in *Input) Validate(raw json.RawMessage) error {
	var value any = map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &value); err != nil {
			return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
		}
	}
	if err := in.resolved.Validate(value); err != nil {
		return &ValidationError{Message: err.Error(), err: err}
	}
	return nil
}

// ValidationError reports arguments that do not satisfy a schema.
type ValidationError struct {
	Message string
	err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.err
}
