package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorAcceptsConformingOutput(t *testing.T) {
	v := NewJSONSchemaValidator()
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"answer": {"type": "string"}},
		"required": ["answer"]
	}`)
	assert.NoError(t, v.Validate(raw, `{"answer": "42"}`))
}

func TestValidatorRejectsNonConformingOutput(t *testing.T) {
	v := NewJSONSchemaValidator()
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"answer": {"type": "string"}},
		"required": ["answer"]
	}`)
	assert.Error(t, v.Validate(raw, `{"wrong": "42"}`))
}

func TestValidatorRejectsMalformedContent(t *testing.T) {
	v := NewJSONSchemaValidator()
	raw := json.RawMessage(`{"type": "object"}`)
	assert.Error(t, v.Validate(raw, `not json`))
}

func TestValidatorCachesCompiledSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	raw := json.RawMessage(`{"type": "string"}`)
	assert.NoError(t, v.Validate(raw, `"hello"`))
	assert.NoError(t, v.Validate(raw, `"world"`))
	assert.Len(t, v.cache, 1)
}
