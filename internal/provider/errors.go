package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	openai "github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Error is a provider failure normalized across the four dialects. Status is
// the HTTP status code, or 0 when the failure happened before any response
// arrived (DNS, refused connection, timeout).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// statusMessage folds an HTTP status into the fixed message set. detail is
// the provider's own error message when one could be extracted; raw is the
// SDK error string used as a last resort.
func statusMessage(status int, detail, raw string) string {
	switch status {
	case 401:
		return "Unauthorized"
	case 404:
		return "Endpoint not found"
	case 400:
		if detail != "" {
			return "Bad request: " + detail
		}
		return "Bad request"
	}
	if detail == "" {
		detail = raw
	}
	return "API Error: " + detail
}

// errorDetail digs the provider's human-readable message out of an SDK error
// string. Both the OpenAI and Anthropic SDKs append the raw response body to
// the status line, so the first '{' onward is the provider's error JSON.
func errorDetail(s string) string {
	i := strings.Index(s, "{")
	if i < 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(s[i:]), &payload); err != nil {
		return ""
	}
	if payload.Error.Message != "" {
		return payload.Error.Message
	}
	return payload.Message
}

// transportError wraps a failure that never produced an HTTP response.
// Context cancellation passes through untouched so callers can branch on it.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Message: "API Error: " + err.Error()}
}

func normalizeOpenAIError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return transportError(err)
	}
	raw := apierr.Error()
	detail := apierr.Message
	if detail == "" {
		detail = errorDetail(raw)
	}
	return &Error{Status: apierr.StatusCode, Message: statusMessage(apierr.StatusCode, detail, raw)}
}

func normalizeAnthropicError(err error) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return transportError(err)
	}
	raw := apierr.Error()
	return &Error{Status: apierr.StatusCode, Message: statusMessage(apierr.StatusCode, errorDetail(raw), raw)}
}

func normalizeGeminiError(err error) error {
	var apierr genai.APIError
	if !errors.As(err, &apierr) {
		return transportError(err)
	}
	return &Error{Status: apierr.Code, Message: statusMessage(apierr.Code, apierr.Message, err.Error())}
}
