package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Status is the connection state of one configured server.
type Status string

const (
	StatusConnected Status = "connected"
	StatusFailed    Status = "failed"
	StatusClosed    Status = "closed"
)

// connectTimeout caps the handshake and tool listing for one server, so a
// wedged subprocess cannot stall startup.
const connectTimeout = 30 * time.Second

// clientInfo identifies this host in the MCP handshake.
var clientInfo = mcpgo.Implementation{Name: "codecrew", Version: "0.1.0"}

// ToolInfo describes one tool offered by a connected server, under its
// prefixed name.
type ToolInfo struct {
	Name        string // mcp_{server}_{tool}
	Server      string
	Tool        string // name on the server side
	Description string
	Schema      json.RawMessage
}

// ServerInfo is the reportable state of one server.
type ServerInfo struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Tools  int    `json:"tools"`
}

type serverConn struct {
	name   string
	client *mcpclient.Client
	status Status
	err    error
	tools  []ToolInfo
}

// route resolves a prefixed tool name back to its server and wire name.
type route struct {
	server string
	tool   string
}

// Client manages connections to the configured MCP servers and routes
// prefixed tool calls to them.
type Client struct {
	mu      sync.RWMutex
	servers map[string]*serverConn
	toolIdx map[string]route
	log     zerolog.Logger
}

// NewClient creates a manager with no servers attached.
func NewClient() *Client {
	return &Client{
		servers: make(map[string]*serverConn),
		toolIdx: make(map[string]route),
		log:     logging.WithComponent("mcp"),
	}
}

// AddServer launches the configured command over stdio, performs the MCP
// handshake and registers the server's tools under mcp_{name}_ prefixed
// names. Disabled entries are skipped without error. A spawn or handshake
// failure is recorded (see Servers) and returned.
func (c *Client) AddServer(ctx context.Context, name string, cfg types.MCPConfig) error {
	if !cfg.IsEnabled() {
		c.log.Debug().Str("server", name).Msg("mcp server disabled, skipping")
		return nil
	}
	if len(cfg.Command) == 0 {
		return fmt.Errorf("mcp server %q: empty command", name)
	}
	if err := c.reserve(name); err != nil {
		return err
	}

	cl, err := mcpclient.NewStdioMCPClient(cfg.Command[0], flattenEnv(cfg.Environment), cfg.Command[1:]...)
	if err != nil {
		c.recordFailure(name, err)
		return fmt.Errorf("mcp server %q: start %s: %w", name, cfg.Command[0], err)
	}
	return c.attach(ctx, name, cl)
}

// AddInProcess attaches a server running inside this process. The handshake
// and tool registration behave exactly as for stdio servers.
func (c *Client) AddInProcess(ctx context.Context, name string, srv *server.MCPServer) error {
	if err := c.reserve(name); err != nil {
		return err
	}

	cl, err := mcpclient.NewInProcessClient(srv)
	if err != nil {
		c.recordFailure(name, err)
		return fmt.Errorf("mcp server %q: %w", name, err)
	}
	if err := cl.Start(ctx); err != nil {
		cl.Close()
		c.recordFailure(name, err)
		return fmt.Errorf("mcp server %q: %w", name, err)
	}
	return c.attach(ctx, name, cl)
}

// reserve claims a server name before the connection attempt so concurrent
// AddServer calls cannot race on it.
func (c *Client) reserve(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.servers[name]; exists {
		return fmt.Errorf("mcp server %q already added", name)
	}
	c.servers[name] = &serverConn{name: name, status: StatusFailed, err: errors.New("connecting")}
	return nil
}

func (c *Client) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.servers[name] = &serverConn{name: name, status: StatusFailed, err: err}
	c.log.Warn().Str("server", name).Err(err).Msg("mcp server failed")
}

// attach completes the handshake on an already started client and indexes
// the server's tools.
func (c *Client) attach(ctx context.Context, name string, cl *mcpclient.Client) error {
	hctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = clientInfo
	if _, err := cl.Initialize(hctx, initReq); err != nil {
		cl.Close()
		c.recordFailure(name, err)
		return fmt.Errorf("mcp server %q: initialize: %w", name, err)
	}

	listed, err := cl.ListTools(hctx, mcpgo.ListToolsRequest{})
	if err != nil {
		cl.Close()
		c.recordFailure(name, err)
		return fmt.Errorf("mcp server %q: list tools: %w", name, err)
	}

	tools := make([]ToolInfo, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		schema, merr := json.Marshal(t.InputSchema)
		if merr != nil {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		tools = append(tools, ToolInfo{
			Name:        PrefixedName(name, t.Name),
			Server:      name,
			Tool:        t.Name,
			Description: describeTool(name, t.Name, t.Description),
			Schema:      schema,
		})
	}

	c.mu.Lock()
	c.servers[name] = &serverConn{name: name, client: cl, status: StatusConnected, tools: tools}
	for _, t := range tools {
		c.toolIdx[t.Name] = route{server: name, tool: t.Tool}
	}
	c.mu.Unlock()

	c.log.Info().Str("server", name).Int("tools", len(tools)).Msg("mcp server connected")
	return nil
}

// PrefixedName returns the registry name for a server's tool.
func PrefixedName(server, tool string) string {
	return "mcp_" + server + "_" + tool
}

func describeTool(server, tool, desc string) string {
	if strings.TrimSpace(desc) == "" {
		return fmt.Sprintf("Tool %q provided by MCP server %q.", tool, server)
	}
	return fmt.Sprintf("%s (via MCP server %q)", desc, server)
}

// Tools returns every tool offered by connected servers, sorted by prefixed
// name.
func (c *Client) Tools() []ToolInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var tools []ToolInfo
	for _, s := range c.servers {
		if s.status == StatusConnected {
			tools = append(tools, s.tools...)
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Servers reports the state of every server that was added, sorted by name.
func (c *Client) Servers() []ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]ServerInfo, 0, len(c.servers))
	for _, s := range c.servers {
		info := ServerInfo{Name: s.name, Status: s.status, Tools: len(s.tools)}
		if s.err != nil {
			info.Error = s.err.Error()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ExecuteTool calls a tool by its prefixed name. The input is the JSON
// argument object produced by the model; empty input means no arguments.
// A result the server flags as an error comes back as an error, so the
// executor renders it like any other tool failure.
func (c *Client) ExecuteTool(ctx context.Context, name string, input json.RawMessage) (string, error) {
	c.mu.RLock()
	rt, ok := c.toolIdx[name]
	var cl *mcpclient.Client
	if ok {
		if conn := c.servers[rt.server]; conn != nil && conn.status == StatusConnected {
			cl = conn.client
		}
	}
	c.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown MCP tool: %s", name)
	}
	if cl == nil {
		return "", fmt.Errorf("mcp server %q is not connected", rt.server)
	}

	var args map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
	}

	req := mcpgo.CallToolRequest{}
	req.Params.Name = rt.tool
	req.Params.Arguments = args
	res, err := cl.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp tool %s: %w", name, err)
	}

	text := renderContent(res.Content)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", fmt.Errorf("mcp tool %s: %s", name, text)
	}
	return text, nil
}

// renderContent flattens a tool result into the text the model sees.
// Non-text parts are carried as their JSON encoding rather than dropped.
func renderContent(parts []mcpgo.Content) string {
	var out []string
	for _, p := range parts {
		if tc, ok := mcpgo.AsTextContent(p); ok {
			out = append(out, tc.Text)
			continue
		}
		if raw, err := json.Marshal(p); err == nil {
			out = append(out, string(raw))
		}
	}
	return strings.Join(out, "\n")
}

// Close shuts down every connected server. The Client is not reusable
// afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, s := range c.servers {
		if s.status == StatusConnected && s.client != nil {
			if err := s.client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.name, err))
			}
		}
		s.status = StatusClosed
	}
	return errors.Join(errs...)
}

// flattenEnv renders the extra environment as KEY=VALUE pairs in a stable
// order. The subprocess inherits this process's environment on top.
func flattenEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
