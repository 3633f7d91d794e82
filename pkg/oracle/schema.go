package oracle

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
)

// Schema is the JSON Schema oracle responses are declared with. It is sent
// to the backend verbatim and validated locally after every judgment.
type Schema = jsonschema.Schema

// Object declares an object whose listed properties are all required.
func Object(props map[string]*Schema) *Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return &Schema{Type: "object", Properties: props, Required: required}
}

// String declares a string property.
func String() *Schema { return &Schema{Type: "string"} }

// Boolean declares a boolean property.
func Boolean() *Schema { return &Schema{Type: "boolean"} }

// Integer declares an integer property.
func Integer() *Schema { return &Schema{Type: "integer"} }

// StringEnum declares a string restricted to values.
func StringEnum(values ...string) *Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &Schema{Type: "string", Enum: enum}
}

// MapOf declares an object with free-form keys whose values match value.
func MapOf(value *Schema) *Schema {
	return &Schema{Type: "object", AdditionalProperties: value}
}

// SchemaJSON renders a schema, indented, for prompts and cache keys.
func SchemaJSON(s *Schema) string {
	if s == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// resolved caches resolved schemas by identity. Schemas must not change once
// they have been used for validation.
var resolved sync.Map // *Schema -> *jsonschema.Resolved

// Validate checks result against schema. A nil schema accepts anything.
func Validate(result map[string]any, schema *Schema) error {
	if schema == nil {
		return nil
	}
	if result == nil {
		return planerrors.SchemaError("oracle returned no object", nil)
	}

	rs, err := resolve(schema)
	if err != nil {
		return err
	}
	if err := rs.Validate(result); err != nil {
		return planerrors.SchemaError("oracle response does not match schema", err)
	}
	return nil
}

func resolve(schema *Schema) (*jsonschema.Resolved, error) {
	if rs, ok := resolved.Load(schema); ok {
		return rs.(*jsonschema.Resolved), nil
	}
	rs, err := schema.Resolve(nil)
	if err != nil {
		return nil, planerrors.SchemaError("invalid response schema", err)
	}
	resolved.Store(schema, rs)
	return rs, nil
}
