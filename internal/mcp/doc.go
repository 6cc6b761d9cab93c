// Package mcp connects to Model Context Protocol servers and exposes their
// tools to agents.
//
// Servers are declared in the "mcp" section of config.json, keyed by name.
// Each entry names a command to launch over stdio plus optional extra
// environment. On AddServer the process is spawned, the MCP handshake runs,
// and the server's tools are listed; each tool is renamed
//
//	mcp_{server}_{tool}
//
// and registered alongside the built-ins, so a server "notes" exposing
// "lookup" appears to the model as mcp_notes_lookup. The mcp_ namespace is
// permission-gated as a whole: every call is approved by the host before it
// reaches the server. Output passes through the usual executor truncation.
//
// AddInProcess attaches a server.MCPServer living in this process over an
// in-memory transport. It exists for tests and for embedding small servers
// without a subprocess.
//
// A server that fails to spawn or handshake is recorded with StatusFailed
// and does not prevent the rest from connecting.
package mcp
