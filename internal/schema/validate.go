// Package schema implements the out-of-scope-internals OutputValidator
// collaborator named in spec.md §6: the core only specifies that an
// agent's declared output_schema is checked against the final turn's
// content, not how JSON Schema compilation/validation itself works.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator checks that a JSON document conforms to a compiled schema.
type Validator interface {
	Validate(schema json.RawMessage, content string) error
}

// JSONSchemaValidator implements Validator atop
// github.com/santhosh-tekuri/jsonschema/v5, the schema library already
// present in the teacher's go.mod. Compiled schemas are cached by their
// serialized form so a schema declared once on an Agent is compiled once.
type JSONSchemaValidator struct {
	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator returns a ready-to-use validator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate parses content as JSON and checks it against schema. A content
// parse failure and a schema validation failure are both returned as
// plain errors; the runner's validateFinalOutput treats either as
// "validation failed, pass raw content through" per spec §4.9, not as a
// fatal ModelBehaviorError.
func (v *JSONSchemaValidator) Validate(rawSchema json.RawMessage, content string) error {
	compiled, err := v.compile(rawSchema)
	if err != nil {
		return fmt.Errorf("schema: compile output_schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("schema: output is not valid JSON: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema: output does not conform to output_schema: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) compile(rawSchema json.RawMessage) (*jsonschema.Schema, error) {
	key := string(rawSchema)

	v.mu.Lock()
	if cached, ok := v.cache[key]; ok {
		v.mu.Unlock()
		return cached, nil
	}
	v.mu.Unlock()

	compiler := jsonschema.NewCompiler()
	const resourceName = "output_schema.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(rawSchema)); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.cache[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}
