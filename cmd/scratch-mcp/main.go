// Command scratch-mcp runs the scratchpad MCP server over stdio. Declare it
// in the "mcp" section of config.json to give agents a shared scratchpad:
//
//	"mcp": {
//	  "scratch": {"command": ["scratch-mcp"]}
//	}
package main

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codecrew-ai/codecrew/pkg/mcpserver/scratch"
)

func main() {
	if err := server.ServeStdio(scratch.NewServer()); err != nil {
		log.Fatal(err)
	}
}
