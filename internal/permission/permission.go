package permission

import (
	"context"
	"strings"
)

// Request describes one tool call awaiting approval.
type Request struct {
	ID      string         `json:"id"`
	AgentID string         `json:"agentId,omitempty"`
	Tool    string         `json:"tool"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details,omitempty"`
}

// Gateway decides whether a tool call may proceed. Implementations must be
// safe for sequential reuse across requests; the runtime consults the
// gateway once per gated call.
type Gateway interface {
	Ask(ctx context.Context, req Request) bool
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, req Request) bool

func (f GatewayFunc) Ask(ctx context.Context, req Request) bool {
	return f(ctx, req)
}

// AutoAllow approves everything. Team broadcasts use it: a per-call prompt
// in the middle of a multi-agent turn would deadlock the channel.
type AutoAllow struct{}

func (AutoAllow) Ask(context.Context, Request) bool { return true }

// dangerousTools are gated by default. Read-only tools pass through unless
// the host opts them in.
var dangerousTools = map[string]bool{
	"bash":  true,
	"write": true,
	"edit":  true,
}

// RequiresApproval reports whether a tool is on the gated list. MCP tools
// run code this process has never seen, so the mcp_ namespace is gated
// wholesale.
func RequiresApproval(tool string) bool {
	return dangerousTools[tool] || strings.HasPrefix(tool, "mcp_")
}

// DeniedResult is the tool result synthesized for the model when the host
// rejects a call. Denial is not an error; the loop continues.
func DeniedResult(tool string) string {
	return "Permission denied by user for " + tool
}
