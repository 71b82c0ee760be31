package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/auditor"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI        = "specaudit://schema"
	resultsSchemaURI = "specaudit://results-schema"
)

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

func toolNames() []string {
	return []string{"specaudit_preview", "specaudit_normalize", "specaudit_report", "specaudit_check_results"}
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version and tool list").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			data, err := json.Marshal(schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         toolNames(),
			})
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      schemaURI,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})

	s.mcpServer.Resource(resultsSchemaURI).
		Name(resultsSchemaURI).
		Description("JSON schema every auditor payload is validated against").
		MimeType("application/schema+json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return &mcplib.ResourceContent{
				URI:      resultsSchemaURI,
				MimeType: "application/schema+json",
				Text:     auditor.ResultsSchemaJSON,
			}, nil
		})
}
