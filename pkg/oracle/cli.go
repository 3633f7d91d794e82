package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
)

// CLIConfig configures a CLIOracle.
type CLIConfig struct {
	// Path is the AI CLI binary. It is invoked as
	// `<path> -p --output-format json [--model M]` with the prompt on stdin.
	Path    string
	Model   string
	Timeout time.Duration
	Env     []string
}

// CLIOracle judges by running a headless AI CLI such as Claude Code.
type CLIOracle struct {
	cfg CLIConfig
}

// NewCLIOracle creates a CLI backed oracle.
func NewCLIOracle(cfg CLIConfig) *CLIOracle {
	if cfg.Path == "" {
		cfg.Path = "claude"
	}
	return &CLIOracle{cfg: cfg}
}

// Name returns the CLI binary name.
func (o *CLIOracle) Name() string {
	return "cli/" + o.cfg.Path
}

// Validate checks the CLI is installed and runs.
func (o *CLIOracle) Validate(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, o.cfg.Path, "--version")
	if err := cmd.Run(); err != nil {
		return planerrors.ConfigError(fmt.Sprintf("%s command not found or not working", o.cfg.Path), err)
	}
	return nil
}

// Judge implements Oracle.
func (o *CLIOracle) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	args := []string{"-p", "--output-format", "json"}
	if o.cfg.Model != "" {
		args = append(args, "--model", o.cfg.Model)
	}

	cmd := exec.CommandContext(ctx, o.cfg.Path, args...)
	cmd.Env = append(os.Environ(), o.cfg.Env...)
	cmd.Stdin = strings.NewReader(renderPrompt(conversation, system, schema))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, planerrors.TimeoutError(fmt.Sprintf("%s timed out", o.cfg.Path), err)
		}
		return nil, planerrors.TransportError(fmt.Sprintf("%s execution failed", o.cfg.Path), err).
			WithContext("stderr", truncate(stderr.String(), 500))
	}

	result, err := ExtractJSON(stdout.String())
	if err != nil {
		return nil, err
	}
	result, err = unwrapEnvelope(result)
	if err != nil {
		return nil, err
	}
	if err := Validate(result, schema); err != nil {
		return nil, err
	}
	return result, nil
}

// unwrapEnvelope handles the `--output-format json` wrapper
// {"type":"result","result":"<model text>"} and returns the inner object.
func unwrapEnvelope(obj map[string]any) (map[string]any, error) {
	if obj["type"] != "result" {
		return obj, nil
	}
	if isErr, _ := obj["is_error"].(bool); isErr {
		return nil, planerrors.TransportError(fmt.Sprintf("cli reported an error: %v", obj["result"]), nil)
	}
	text, ok := obj["result"].(string)
	if !ok {
		return obj, nil
	}
	return ExtractJSON(text)
}

// renderPrompt flattens the system instruction, conversation and schema into
// a single headless prompt.
func renderPrompt(conversation []Message, system string, schema *Schema) string {
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	for i, m := range conversation {
		if len(conversation) > 1 || m.Role != RoleUser {
			fmt.Fprintf(&b, "[%s]\n", m.Role)
		}
		b.WriteString(m.Content)
		if i < len(conversation)-1 {
			b.WriteString("\n\n")
		}
	}
	if schema != nil {
		b.WriteString("\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n")
		b.WriteString(SchemaJSON(schema))
	}
	return b.String()
}
