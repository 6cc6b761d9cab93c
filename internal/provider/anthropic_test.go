package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// messagesServer fakes the Anthropic Messages API at /v1/messages.
func messagesServer(t *testing.T, status int, response string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		requests = append(requests, decoded)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestAnthropicClient_Send(t *testing.T) {
	srv, requests := messagesServer(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"content": [{"type": "text", "text": "Hello from Claude"}],
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 20, "output_tokens": 7}
	}`)

	c := newAnthropic("test-key", srv.URL, "claude-sonnet-4-20250514")
	resp, err := c.Send(context.Background(), &Request{
		SystemPrompt: "You review code.",
		Messages:     []types.Message{types.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if resp.Text != "Hello from Claude" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.StopReason != StopEndTurn {
		t.Errorf("StopReason = %q, want %q", resp.StopReason, StopEndTurn)
	}
	if resp.Usage.InputTokens != 20 || resp.Usage.OutputTokens != 7 {
		t.Errorf("Usage = %+v, want 20 in / 7 out", resp.Usage)
	}

	body := (*requests)[0]
	if body["model"] != "claude-sonnet-4-20250514" {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(anthropicMaxTokens) {
		t.Errorf("max_tokens = %v, want %d", body["max_tokens"], anthropicMaxTokens)
	}
	system := body["system"].([]any)
	if len(system) != 1 || system[0].(map[string]any)["text"] != "You review code." {
		t.Errorf("system = %v, want the system prompt block", system)
	}
	messages := body["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].(map[string]any)["role"] != "user" {
		t.Errorf("message role = %v, want user", messages[0])
	}
}

func TestAnthropicClient_ToolUse(t *testing.T) {
	srv, requests := messagesServer(t, http.StatusOK, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "Let me check."},
			{"type": "tool_use", "id": "toolu_1", "name": "bash", "input": {"command": "ls"}}
		],
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 40, "output_tokens": 15}
	}`)

	c := newAnthropic("test-key", srv.URL, "claude-sonnet-4-20250514")
	resp, err := c.Send(context.Background(), &Request{
		Messages: []types.Message{types.UserMessage("list files")},
		Tools: []types.ToolDefinition{{
			Name:        "bash",
			Description: "Runs a command",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`),
		}},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if resp.Text != "Let me check." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.StopReason != StopToolUse {
		t.Errorf("StopReason = %q, want %q", resp.StopReason, StopToolUse)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "toolu_1" || call.Name != "bash" {
		t.Errorf("tool call = %+v", call)
	}
	var input map[string]string
	if err := json.Unmarshal(call.Arguments, &input); err != nil || input["command"] != "ls" {
		t.Errorf("arguments = %s, want command=ls", call.Arguments)
	}

	tools := (*requests)[0]["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("got %d tools in request, want 1", len(tools))
	}
	tool := tools[0].(map[string]any)
	if tool["name"] != "bash" {
		t.Errorf("tool name = %v", tool["name"])
	}
	schema := tool["input_schema"].(map[string]any)
	if schema["type"] != "object" {
		t.Errorf("input_schema = %v, want an object schema", schema)
	}
	if _, ok := schema["properties"].(map[string]any)["command"]; !ok {
		t.Errorf("input_schema properties = %v, want command", schema["properties"])
	}
}

func TestAnthropicClient_MergesToolResults(t *testing.T) {
	srv, requests := messagesServer(t, http.StatusOK, `{
		"id": "msg_3",
		"type": "message",
		"role": "assistant",
		"content": [{"type": "text", "text": "Both done."}],
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 5, "output_tokens": 2}
	}`)

	assistant := types.AssistantMessage("Running both.", []types.ToolCall{
		{ID: "toolu_1", Name: "bash", Arguments: json.RawMessage(`{"command":"ls"}`)},
		{ID: "toolu_2", Name: "read_file", Arguments: json.RawMessage(`{"path":"go.mod"}`)},
	})

	c := newAnthropic("test-key", srv.URL, "claude-sonnet-4-20250514")
	_, err := c.Send(context.Background(), &Request{
		Messages: []types.Message{
			types.UserMessage("do two things"),
			assistant,
			types.ToolResultMessage("toolu_1", "main.go"),
			types.ToolResultMessage("toolu_2", "module example"),
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// Two consecutive role=tool turns must collapse into one user message
	// carrying both tool_result blocks.
	messages := (*requests)[0]["messages"].([]any)
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want user + assistant + merged results", len(messages))
	}
	last := messages[2].(map[string]any)
	if last["role"] != "user" {
		t.Errorf("final role = %v, want user", last["role"])
	}
	blocks := last["content"].([]any)
	if len(blocks) != 2 {
		t.Fatalf("got %d result blocks, want 2", len(blocks))
	}
	for i, wantID := range []string{"toolu_1", "toolu_2"} {
		block := blocks[i].(map[string]any)
		if block["type"] != "tool_result" || block["tool_use_id"] != wantID {
			t.Errorf("block %d = %v, want tool_result for %s", i, block, wantID)
		}
	}

	middle := messages[1].(map[string]any)
	if middle["role"] != "assistant" {
		t.Errorf("middle role = %v, want assistant", middle["role"])
	}
	middleBlocks := middle["content"].([]any)
	if len(middleBlocks) != 3 {
		t.Errorf("assistant blocks = %d, want text + two tool_use", len(middleBlocks))
	}
}

func TestAnthropicClient_StopReasonFallback(t *testing.T) {
	srv, _ := messagesServer(t, http.StatusOK, `{
		"id": "msg_4",
		"type": "message",
		"role": "assistant",
		"content": [{"type": "tool_use", "id": "toolu_9", "name": "bash", "input": {}}],
		"model": "claude-sonnet-4-20250514",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`)

	c := newAnthropic("test-key", srv.URL, "claude-sonnet-4-20250514")
	resp, err := c.Send(context.Background(), &Request{
		Messages: []types.Message{types.UserMessage("go")},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.StopReason != StopToolUse {
		t.Errorf("StopReason = %q, want inferred %q", resp.StopReason, StopToolUse)
	}
}

func TestAnthropicClient_ErrorMapping(t *testing.T) {
	srv, _ := messagesServer(t, http.StatusUnauthorized,
		`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`)

	c := newAnthropic("bad-key", srv.URL, "claude-sonnet-4-20250514")
	_, err := c.Send(context.Background(), &Request{
		Messages: []types.Message{types.UserMessage("hi")},
	})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Send() error = %v, want *Error", err)
	}
	if perr.Status != 401 || perr.Message != "Unauthorized" {
		t.Errorf("error = %+v, want 401 Unauthorized", perr)
	}
}

func TestDecodeToolArguments(t *testing.T) {
	tests := []struct {
		name string
		in   json.RawMessage
		want any
	}{
		{"object", json.RawMessage(`{"a":1}`), map[string]any{"a": float64(1)}},
		{"empty", nil, map[string]any{}},
		{"garbage", json.RawMessage(`{not json`), map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeToolArguments(tt.in)
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tt.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("decodeToolArguments(%s) = %s, want %s", tt.in, gotJSON, wantJSON)
			}
		})
	}
}
