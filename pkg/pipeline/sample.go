package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Record is one input record: field name to value.
type Record map[string]any

// Has reports whether the record carries the named field.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Project returns a copy of the record restricted to the given fields.
func (r Record) Project(fields []string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Sample is an ordered, read-only sequence of records.
type Sample []Record

// First returns the first record, or nil for an empty sample.
func (s Sample) First() Record {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// LoadSample reads records from a .json (array), .jsonl or .yaml file.
func LoadSample(path string) (Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read sample file: %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ParseJSONLines(data)
	case ".yaml", ".yml":
		var records []Record
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("failed to parse sample file: %s", path), err)
		}
		return Sample(records), nil
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON array of objects.
func ParseJSON(data []byte) (Sample, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.ConfigError("failed to parse JSON sample", err)
	}
	return Sample(records), nil
}

// ParseJSONLines decodes one JSON object per non-blank line.
func ParseJSONLines(data []byte) (Sample, error) {
	var records Sample
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("failed to parse JSONL sample at line %d", line), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ConfigError("failed to read JSONL sample", err)
	}
	return records, nil
}
