// Package mcp lets other programs embed the specaudit MCP server.
package mcp

import infra "github.com/felixgeelhaar/specaudit/internal/infrastructure/mcp"

// Server exposes the MCP server implementation from the infrastructure layer.
type Server = infra.Server

// NewServer constructs an MCP server for the project at root. configPath
// overrides the .specaudit.yaml lookup when non-empty.
func NewServer(root, configPath string) (*Server, error) {
	return infra.NewServer(root, configPath)
}
