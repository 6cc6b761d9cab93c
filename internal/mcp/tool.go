package mcp

import (
	"context"
	"encoding/json"

	"github.com/codecrew-ai/codecrew/internal/tool"
)

// serverTool adapts one MCP tool to the registry's Tool interface. The
// prefixed ID keeps it inside the permission-gated mcp_ namespace.
type serverTool struct {
	client *Client
	info   ToolInfo
}

func (t *serverTool) ID() string { return t.info.Name }

func (t *serverTool) Description() string { return t.info.Description }

func (t *serverTool) Parameters() json.RawMessage { return t.info.Schema }

func (t *serverTool) Execute(ctx context.Context, input json.RawMessage, _ *tool.Context) (*tool.Result, error) {
	out, err := t.client.ExecuteTool(ctx, t.info.Name, input)
	if err != nil {
		return nil, err
	}
	return &tool.Result{Title: t.info.Name, Output: out}, nil
}

// RegisterTools adds every tool offered by the client's connected servers
// to the registry and reports how many were added. Call it after the
// servers are attached; tools from servers added later need another pass.
func RegisterTools(c *Client, reg *tool.Registry) int {
	tools := c.Tools()
	for _, info := range tools {
		reg.Register(&serverTool{client: c, info: info})
	}
	return len(tools)
}
