// Package oracle defines the structured-judgment contract the planners
// consult, and the backends that fulfil it.
//
// An Oracle receives a conversation, a system instruction and a response
// schema and returns a JSON object conforming to that schema. Backends talk
// to an OpenAI-compatible HTTP endpoint or to a local AI CLI; decorators add
// caching, prompt screening and metrics around any backend.
package oracle

import (
	"context"
	"encoding/json"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of an oracle conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// User builds a single user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Oracle returns a structured judgment for a conversation.
//
// Implementations must return a result that satisfies schema or an error;
// transport failures are reported as errors.ErrTransport and malformed
// responses as errors.ErrSchema. The oracle may be nondeterministic.
type Oracle interface {
	Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error)

// Judge calls f.
func (f Func) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	return f(ctx, conversation, system, schema)
}

// Decode copies a validated result into a typed struct.
func Decode(result map[string]any, out any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return planerrors.SchemaError("encode oracle result", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return planerrors.SchemaError("decode oracle result", err)
	}
	return nil
}
