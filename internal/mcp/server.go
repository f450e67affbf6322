// Package mcp exposes courier over the Model Context Protocol so a
// Claude session can raise notifications and inspect the delivery
// journal directly.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/courier/internal/mcp/handlers"
)

// Deps holds shared dependencies injected into MCP handlers.
type Deps struct {
	Dispatcher handlers.Dispatcher
	Journal    handlers.DeliveryLister // nil when the journal is disabled
	Version    string
}

// NewServer creates and configures the MCP server with all tools
// registered.
func NewServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"Courier",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	registerTools(s, deps)

	return s
}
