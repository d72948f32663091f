// crogentx MCP Server - Exposes crogentx analytics as MCP tools for LLMs
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/crogentx/crogentx/internal/config"
	"github.com/crogentx/crogentx/internal/mcpserver"
)

func main() {
	cfg := config.LoadClient()

	s := mcpserver.NewMCPServer(cfg)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
