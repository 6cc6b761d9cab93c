// Package tool implements the sandboxed tools agents may call: bash, read,
// write, edit, glob, grep, webfetch and the shared todo list. Every
// invocation goes through the Executor, which gates dangerous tools behind
// the permission layer, renders policy violations as "Blocked: …" result
// strings, truncates oversized output and appends to the tool call log.
package tool

import (
	"context"
	"encoding/json"

	"github.com/codecrew-ai/codecrew/internal/permission"
)

// Tool is a single callable exposed to the model.
type Tool interface {
	// ID returns the tool name advertised to providers.
	ID() string

	// Description returns the usage text shown to the model.
	Description() string

	// Parameters returns the JSON Schema for the tool's input object.
	Parameters() json.RawMessage

	// Execute runs the tool. A *sandbox.BlockedError return means the call
	// violated policy and is rendered as a result string, not a failure.
	Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error)
}

// Context carries per-request call state into a tool.
type Context struct {
	// AgentID identifies the calling agent in the tool log.
	AgentID string

	// AgentName is the human name, used in permission prompts.
	AgentName string

	// CallID is the provider-assigned id of this tool call.
	CallID string

	// WorkDir anchors relative paths for this request. Empty means the
	// policy's project root.
	WorkDir string

	// Gateway answers permission prompts for dangerous tools. Nil means
	// auto-allow.
	Gateway permission.Gateway
}

// Result is the outcome of a tool execution. Output is what the model sees
// (after truncation); Title and Metadata feed events and host UIs only.
type Result struct {
	Title    string
	Output   string
	Metadata map[string]any
}
