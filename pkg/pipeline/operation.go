// Package pipeline defines the operation and data sample types consumed by
// the planners, and loads them from YAML or JSON files.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FieldType is one of the scalar or array types permitted in an output schema.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
)

// FieldTypes lists the permitted field types in declaration order.
var FieldTypes = []FieldType{FieldString, FieldInteger, FieldNumber, FieldBoolean, FieldArray}

// IsValid reports whether t is a permitted field type.
func (t FieldType) IsValid() bool {
	for _, ft := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// Schema maps output field names to their declared type.
type Schema map[string]FieldType

// Fields returns the schema's field names sorted for stable output.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every field uses a permitted type.
func (s Schema) Validate() error {
	for _, name := range s.Fields() {
		if !s[name].IsValid() {
			return errors.ValidationError(
				fmt.Sprintf("field %q has unsupported type %q", name, s[name]), nil)
		}
	}
	return nil
}

// Output holds the declared output of an operation.
type Output struct {
	Schema Schema `yaml:"schema" json:"schema"`
}

// Operation is a single declared per-record transform: a prompt template and
// an output schema. Planners treat it as immutable.
type Operation struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Prompt string `yaml:"prompt" json:"prompt"`
	Output Output `yaml:"output" json:"output"`
}

// Validate checks the operation carries what the planners need.
func (o *Operation) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return errors.ValidationError("operation name is required", nil)
	}
	if strings.TrimSpace(o.Prompt) == "" {
		return errors.ValidationError(fmt.Sprintf("operation %q has no prompt", o.Name), nil)
	}
	if err := o.Output.Schema.Validate(); err != nil {
		return errors.ValidationError(fmt.Sprintf("operation %q output schema", o.Name), err)
	}
	return nil
}

// operationFile accepts either a single operation or an "operations" list,
// the way pipeline definitions usually nest them.
type operationFile struct {
	Operations []Operation `yaml:"operations"`
}

// LoadOperations reads one or more operations from a YAML or JSON file.
// JSON is a subset of YAML, so one decoder serves both.
func LoadOperations(path string) ([]Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read operation file: %s", path), err)
	}
	return ParseOperations(data, filepath.Base(path))
}

// ParseOperations decodes operations from YAML or JSON bytes.
func ParseOperations(data []byte, source string) ([]Operation, error) {
	var file operationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse operations: %s", source), err)
	}

	ops := file.Operations
	if len(ops) == 0 {
		var single Operation
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("failed to parse operation: %s", source), err)
		}
		ops = []Operation{single}
	}

	for i := range ops {
		if err := ops[i].Validate(); err != nil {
			return nil, err
		}
	}
	return ops, nil
}
