// Package scratch provides an MCP server exposing a shared key-value
// scratchpad. It is the demo server for the MCP integration: point a config
// entry at the scratch-mcp binary and every agent on the team gets
// mcp_scratch_set, mcp_scratch_get and mcp_scratch_list tools backed by the
// same pad.
package scratch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Pad is the in-memory store behind the server's tools.
type Pad struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewPad creates an empty scratchpad.
func NewPad() *Pad {
	return &Pad{entries: make(map[string]string)}
}

// Set stores value under key, replacing any previous entry.
func (p *Pad) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[key] = value
}

// Get returns the value stored under key.
func (p *Pad) Get(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.entries[key]
	return v, ok
}

// Keys returns the stored keys, sorted.
func (p *Pad) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewServer creates an MCP server with set, get and list tools sharing one
// pad. State lives for the life of the server process.
func NewServer() *server.MCPServer {
	pad := NewPad()

	s := server.NewMCPServer(
		"scratch",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	set := mcp.NewTool("set",
		mcp.WithDescription("Stores a value under a key on the shared scratchpad"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Entry name"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Text to store"),
		),
	)
	s.AddTool(set, pad.handleSet)

	get := mcp.NewTool("get",
		mcp.WithDescription("Reads a value from the shared scratchpad"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Entry name"),
		),
	)
	s.AddTool(get, pad.handleGet)

	list := mcp.NewTool("list",
		mcp.WithDescription("Lists the keys currently on the scratchpad"),
	)
	s.AddTool(list, pad.handleList)

	return s
}

func (p *Pad) handleSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key, _ := args["key"].(string)
	value, _ := args["value"].(string)
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	p.Set(key, value)
	return mcp.NewToolResultText(fmt.Sprintf("stored %q (%d bytes)", key, len(value))), nil
}

func (p *Pad) handleGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, _ := req.GetArguments()["key"].(string)
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	v, ok := p.Get(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no entry %q", key)), nil
	}
	return mcp.NewToolResultText(v), nil
}

func (p *Pad) handleList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := p.Keys()
	if len(keys) == 0 {
		return mcp.NewToolResultText("scratchpad is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}
