package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPlanErrorMessage(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ConfigError("split key 'body' not found", cause)

	if !strings.Contains(err.Error(), "[CONFIG]") {
		t.Errorf("Error() = %q, want CONFIG prefix", err.Error())
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, want cause in message", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}

	bare := SchemaError("missing field", nil)
	if bare.Error() != "[SCHEMA] missing field" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("planning failed: %w", TransportError("unreachable", nil))

	if !IsType(wrapped, ErrTransport) {
		t.Error("IsType should see through fmt.Errorf wrapping")
	}
	if IsType(wrapped, ErrConfig) {
		t.Error("IsType matched the wrong type")
	}
	if IsType(nil, ErrConfig) {
		t.Error("IsType(nil) should be false")
	}
	if IsType(fmt.Errorf("plain"), ErrConfig) {
		t.Error("IsType on a plain error should be false")
	}
}

func TestRetryableAndFatal(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		fatal     bool
	}{
		{"config", ConfigError("x", nil), false, true},
		{"validation", ValidationError("x", nil), false, true},
		{"schema", SchemaError("x", nil), true, false},
		{"transport", TransportError("x", nil), true, false},
		{"timeout", TimeoutError("x", nil), true, false},
		{"plain", fmt.Errorf("x"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	err := ConfigError("bad key", nil).WithContext("split_key", "body")
	if err.Context["split_key"] != "body" {
		t.Errorf("Context = %v", err.Context)
	}
}
