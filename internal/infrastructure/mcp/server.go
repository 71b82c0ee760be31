package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/auditor"
)

// Server exposes normalization and audits to MCP clients.
type Server struct {
	mcpServer *mcp.Server
	services  *wiring.AppServices
	logger    *slog.Logger
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns the friendly message only; details go to the log.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer builds services from the configuration in root.
func NewServer(root, configPath string) (*Server, error) {
	services, err := wiring.BuildAppServices(root, configPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return NewServerWithServices(services)
}

// NewServerWithServices builds a server around already wired services.
func NewServerWithServices(services *wiring.AppServices) (*Server, error) {
	if services == nil {
		return nil, errors.New("services are required")
	}

	info := mcp.ServerInfo{
		Name:    "specaudit",
		Version: Version,
	}
	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Specaudit MCP Server"),
			mcp.WithDescription("Normalizes category specification files and audits them."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/specaudit"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use specaudit_preview to inspect a file, specaudit_normalize to build the audit input and specaudit_report to audit it."),
		),
		services: services,
		logger:   services.Logger,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s, nil
}

// DocumentArgs names a specifications document by path or inline content.
type DocumentArgs struct {
	Path    string `json:"path,omitempty" jsonschema:"description=Path to a specifications JSON file"`
	Content string `json:"content,omitempty" jsonschema:"description=Inline specifications JSON (used when path is empty)"`
}

type NormalizeArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"description=Path to a specifications JSON file"`
	Content  string `json:"content,omitempty" jsonschema:"description=Inline specifications JSON (used when path is empty)"`
	MCATName string `json:"mcat_name" jsonschema:"description=Master category name the document must belong to"`
}

func (a NormalizeArgs) document() DocumentArgs {
	return DocumentArgs{Path: a.Path, Content: a.Content}
}

type ReportArgs struct {
	Path     string   `json:"path,omitempty" jsonschema:"description=Path to a specifications JSON file"`
	Content  string   `json:"content,omitempty" jsonschema:"description=Inline specifications JSON (used when path is empty)"`
	MCATName string   `json:"mcat_name" jsonschema:"description=Master category name the document must belong to"`
	Expanded []string `json:"expanded,omitempty" jsonschema:"description=Specifications whose explanations are expanded"`
}

func (a ReportArgs) document() DocumentArgs {
	return DocumentArgs{Path: a.Path, Content: a.Content}
}

type CheckResultsArgs struct {
	Content string `json:"content" jsonschema:"description=Audit results JSON to validate"`
}

// PreviewResult is returned by specaudit_preview.
type PreviewResult struct {
	Shape   string `json:"shape"`
	Preview int    `json:"preview"`
}

// CheckResultsResult is returned by specaudit_check_results.
type CheckResultsResult struct {
	Valid   bool           `json:"valid"`
	Issues  []string       `json:"issues,omitempty"`
	Summary report.Summary `json:"summary"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("specaudit_preview").
		Description("Detect the shape of a specifications file and count the specifications it appears to hold").
		Handler(s.handlePreview)

	s.mcpServer.Tool("specaudit_normalize").
		Description("Normalize a specifications file into the audit input for an MCAT name").
		Handler(s.handleNormalize)

	s.mcpServer.Tool("specaudit_report").
		Description("Normalize, audit with the configured auditor and return the result report").
		Handler(s.handleReport)

	s.mcpServer.Tool("specaudit_check_results").
		Description("Validate an audit results payload against the results schema").
		Handler(s.handleCheckResults)
}

func (s *Server) handlePreview(ctx context.Context, args DocumentArgs) (any, error) {
	doc, err := s.readDocument(ctx, args)
	if err != nil {
		return nil, err
	}
	return PreviewResult{
		Shape:   normalize.Detect(doc).String(),
		Preview: normalize.Preview(doc),
	}, nil
}

func (s *Server) handleNormalize(ctx context.Context, args NormalizeArgs) (any, error) {
	if strings.TrimSpace(args.MCATName) == "" {
		return nil, mcpErr(normalize.Message(normalize.ErrMissingName))
	}
	doc, err := s.readDocument(ctx, args.document())
	if err != nil {
		return nil, err
	}
	input, err := normalize.Normalize(doc, args.MCATName)
	if err != nil {
		return nil, mcpErr(normalize.Message(err))
	}
	return input, nil
}

func (s *Server) handleReport(ctx context.Context, args ReportArgs) (any, error) {
	if strings.TrimSpace(args.MCATName) == "" {
		return nil, mcpErr(normalize.Message(normalize.ErrMissingName))
	}
	src, err := source(args.document())
	if err != nil {
		return nil, err
	}
	intake, err := s.services.NewIntake()
	if err != nil {
		s.logger.Error("failed to start form session", "error", err)
		return nil, mcpErr("Failed to start an audit session.")
	}
	if _, err := intake.Load(ctx, src); err != nil {
		return nil, mcpErr(normalize.Message(err))
	}
	if _, err := intake.Run(ctx, args.MCATName); err != nil {
		if normalize.IsValidation(err) {
			return nil, mcpErr(normalize.Message(err))
		}
		s.logger.Error("audit failed", "auditor", s.services.Auditor.ID(), "error", err)
		return nil, mcpErr("Audit failed. Check the auditor configuration in .specaudit.yaml.")
	}
	return intake.ViewExpanded(report.NewExpandSet(args.Expanded...))
}

func (s *Server) handleCheckResults(_ context.Context, args CheckResultsArgs) (any, error) {
	results, err := auditor.DecodeResults([]byte(args.Content))
	if err != nil {
		var schemaErr *auditor.SchemaError
		if errors.As(err, &schemaErr) {
			return CheckResultsResult{Issues: schemaErr.Issues}, nil
		}
		return CheckResultsResult{Issues: []string{err.Error()}}, nil
	}
	return CheckResultsResult{Valid: true, Summary: report.Summarize(results)}, nil
}

func (s *Server) readDocument(ctx context.Context, args DocumentArgs) (any, error) {
	src, err := source(args)
	if err != nil {
		return nil, err
	}
	data, err := src.Read(ctx)
	if err != nil {
		s.logger.Warn("failed to read document", "source", src.Name(), "error", err)
		return nil, mcpErr("Failed to read the specifications file.")
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return nil, mcpErr(normalize.Message(err))
	}
	return doc, nil
}

func source(args DocumentArgs) (application.Source, error) {
	switch {
	case strings.TrimSpace(args.Path) != "":
		return application.FileSource{Path: args.Path}, nil
	case strings.TrimSpace(args.Content) != "":
		return application.BytesSource{FileName: "inline.json", Data: []byte(args.Content)}, nil
	default:
		return nil, mcpErr(normalize.Message(normalize.ErrMissingFile))
	}
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}

func (s *Server) ServeGRPC(ctx context.Context, addr string) error {
	return mcp.ServeGRPC(ctx, s.mcpServer, addr)
}

// Serve runs the named transport: stdio, http, ws or grpc.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case "", "stdio":
		return s.ServeStdio(ctx)
	case "http":
		return s.ServeHTTP(ctx, addr)
	case "ws", "websocket":
		return s.ServeWebSocket(ctx, addr)
	case "grpc":
		return s.ServeGRPC(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (expected stdio, http, ws or grpc)", transport)
	}
}
