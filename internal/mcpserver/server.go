package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/crogentx/crogentx/internal/config"
	"github.com/crogentx/crogentx/pkg/sdk"
)

// Version is reported to MCP clients during initialization
const Version = "0.1.0"

// NewMCPServer creates a configured MCP server with all crogentx tools registered.
func NewMCPServer(cfg config.ClientConfig) *server.MCPServer {
	s := server.NewMCPServer("crogentx", Version)
	h := NewHandlers(sdk.New(cfg.APIURL, sdk.WithTimeout(cfg.Timeout)))

	s.AddTool(ToolListTransactions, h.HandleListTransactions)
	s.AddTool(ToolGetTransaction, h.HandleGetTransaction)
	s.AddTool(ToolListAgents, h.HandleListAgents)
	s.AddTool(ToolGetAgent, h.HandleGetAgent)
	s.AddTool(ToolSimulateTransaction, h.HandleSimulateTransaction)
	s.AddTool(ToolDebugTransaction, h.HandleDebugTransaction)
	s.AddTool(ToolGetGraph, h.HandleGetGraph)
	s.AddTool(ToolGetStats, h.HandleGetStats)
	s.AddTool(ToolGetLeaderboard, h.HandleGetLeaderboard)

	return s
}
