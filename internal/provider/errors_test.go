package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		detail string
		raw    string
		want   string
	}{
		{"unauthorized", 401, "invalid api key", "401 ...", "Unauthorized"},
		{"not found", 404, "no such model", "404 ...", "Endpoint not found"},
		{"bad request with detail", 400, "max_tokens too large", "400 ...", "Bad request: max_tokens too large"},
		{"bad request bare", 400, "", "400 ...", "Bad request"},
		{"server error uses detail", 500, "overloaded", "500 ...", "API Error: overloaded"},
		{"server error falls back to raw", 503, "", "503 service unavailable", "API Error: 503 service unavailable"},
		{"rate limited", 429, "slow down", "429 ...", "API Error: slow down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusMessage(tt.status, tt.detail, tt.raw); got != tt.want {
				t.Errorf("statusMessage(%d, %q, %q) = %q, want %q", tt.status, tt.detail, tt.raw, got, tt.want)
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"openai nested", `POST 400 {"error": {"message": "bad schema", "type": "invalid_request_error"}}`, "bad schema"},
		{"anthropic nested", `POST 401 {"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`, "invalid x-api-key"},
		{"flat message", `500 {"message": "internal"}`, "internal"},
		{"nested wins over flat", `{"message": "outer", "error": {"message": "inner"}}`, "inner"},
		{"no json", "connection refused", ""},
		{"broken json", `status {"error": {`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail(tt.in); got != tt.want {
				t.Errorf("errorDetail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Run("cancellation passes through", func(t *testing.T) {
		if got := transportError(context.Canceled); !errors.Is(got, context.Canceled) {
			t.Errorf("transportError(Canceled) = %v, want the context error intact", got)
		}
		if got := transportError(context.DeadlineExceeded); !errors.Is(got, context.DeadlineExceeded) {
			t.Errorf("transportError(DeadlineExceeded) = %v, want the context error intact", got)
		}
	})

	t.Run("wraps transport failures", func(t *testing.T) {
		got := transportError(errors.New("dial tcp: connection refused"))
		var perr *Error
		if !errors.As(got, &perr) {
			t.Fatalf("transportError() = %T, want *Error", got)
		}
		if perr.Status != 0 {
			t.Errorf("Status = %d, want 0 for pre-response failures", perr.Status)
		}
		if !strings.HasPrefix(perr.Message, "API Error: ") {
			t.Errorf("Message = %q, want the API Error prefix", perr.Message)
		}
	})
}
