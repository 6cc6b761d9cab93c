package types

import (
	"encoding/json"
	"time"
)

// Message roles. System prompts are not messages; each provider adapter
// places the system prompt where its dialect expects it.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in an agent's conversation: the DM history and the
// working messages of a tool loop both use it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls echoes the calls an assistant message requested; the wire
	// dialects require them to be replayed ahead of their results.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ToolCallID correlates a role=tool message to the originating call.
	ToolCallID string `json:"toolCallId,omitempty"`

	// Set when the message originated in a team broadcast.
	AgentName string `json:"agentName,omitempty"`
	AgentRole string `json:"agentRole,omitempty"`
}

// ToolCall is a model-emitted request to invoke one sandboxed tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition advertises one tool to a provider. Parameters is a JSON
// Schema object; each adapter reshapes it into its dialect's tool format.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// UserMessage builds a plain user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message carrying any tool calls.
func AssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResultMessage builds a role=tool message keyed to its originating call.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// TranscriptEntry is one line of the team channel's shared transcript.
// AuthorID is nil for the user's own entries.
type TranscriptEntry struct {
	AuthorID   *string   `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// FromUser reports whether the entry was authored by the user.
func (e TranscriptEntry) FromUser() bool { return e.AuthorID == nil }

// ToolCallRecord is one append-only tool log entry. Arguments and Preview
// are sanitized: content-bearing fields are clipped to 200 characters.
type ToolCallRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AgentID   string    `json:"agentId"`
	Tool      string    `json:"tool"`
	Arguments string    `json:"arguments"`
	Preview   string    `json:"preview"`
	Success   bool      `json:"success"`
}
