package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
)

// Default endpoints for the OpenAI-compatible providers.
var defaultBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
}

// HTTPConfig configures an HTTPOracle.
type HTTPConfig struct {
	Provider    string // openai, openrouter, ollama
	Model       string
	BaseURL     string // empty = provider default
	APIKey      string // not required for ollama
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Client      *http.Client
}

// HTTPOracle judges through an OpenAI-compatible /chat/completions endpoint
// using structured JSON output.
type HTTPOracle struct {
	cfg     HTTPConfig
	baseURL string
	client  *http.Client
}

// chat completion request/response types (OpenAI-compatible).
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string  `json:"name"`
	Schema *Schema `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewHTTPOracle creates an HTTP backed oracle.
func NewHTTPOracle(cfg HTTPConfig) (*HTTPOracle, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "openai"
	}
	cfg.Provider = provider

	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		if baseURL, ok = defaultBaseURLs[provider]; !ok {
			return nil, planerrors.ConfigError(fmt.Sprintf("unknown oracle provider %q", cfg.Provider), nil)
		}
	}
	if cfg.Model == "" {
		return nil, planerrors.ConfigError("oracle model is required", nil)
	}
	if cfg.APIKey == "" && provider != "ollama" {
		return nil, planerrors.ConfigError(fmt.Sprintf("%s provider requires an API key", provider), nil)
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPOracle{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

// Name returns provider/model.
func (o *HTTPOracle) Name() string {
	return o.cfg.Provider + "/" + o.cfg.Model
}

// Judge implements Oracle.
func (o *HTTPOracle) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	messages := make([]Message, 0, len(conversation)+1)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, conversation...)

	req := chatRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}
	if schema != nil {
		req.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: "judgment", Schema: schema},
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, planerrors.TransportError("marshaling request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, planerrors.TransportError("creating request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, planerrors.TimeoutError("oracle request timed out", err)
		}
		return nil, planerrors.TransportError("sending request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, planerrors.TransportError("reading response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, planerrors.TransportError(
			fmt.Sprintf("%s API error (status %d)", o.cfg.Provider, resp.StatusCode), nil).
			WithContext("body", truncate(string(respBody), 500))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, planerrors.TransportError("parsing response", err)
	}
	if chatResp.Error != nil {
		return nil, planerrors.TransportError(fmt.Sprintf("%s API error: %s", o.cfg.Provider, chatResp.Error.Message), nil)
	}
	if len(chatResp.Choices) == 0 {
		return nil, planerrors.TransportError(fmt.Sprintf("empty response from %s API", o.cfg.Provider), nil)
	}

	result, err := ExtractJSON(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := Validate(result, schema); err != nil {
		return nil, err
	}
	return result, nil
}
