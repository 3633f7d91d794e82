package oracle

import (
	"bufio"
	"encoding/json"
	"strings"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
)

// ExtractJSON pulls the first JSON object out of a model reply. It accepts a
// bare object, a fenced ```json block, or an object surrounded by prose.
func ExtractJSON(output string) (map[string]any, error) {
	text := strings.TrimSpace(output)
	if text == "" {
		return nil, planerrors.SchemaError("empty oracle response", nil)
	}

	if obj, ok := decodeObject(text); ok {
		return obj, nil
	}
	if block := fencedBlock(text); block != "" {
		if obj, ok := decodeObject(block); ok {
			return obj, nil
		}
	}
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			if obj, ok := decodeObject(text[start : end+1]); ok {
				return obj, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, planerrors.SchemaError("no JSON object in oracle response", nil).
		WithContext("response", truncate(text, 200))
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// fencedBlock returns the body of the first ``` block.
func fencedBlock(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	inBlock := false
	var buf strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if !inBlock {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inBlock = true
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			break
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String())
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
