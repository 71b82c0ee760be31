package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specaudit/pkg/domain/audit"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
)

const steelDoc = `{"MCAT_Name": "Steel", "Specifications": [
	{"name": "Grade", "options": ["304", "316"], "type": "Config"},
	{"name": "Finish", "options": ["Matte", "Gloss"], "type": "Key"}
]}`

func newTestServer(t *testing.T, auditErr error) *Server {
	t.Helper()
	stub := audit.Func(func(_ context.Context, in catalog.AuditInput) ([]catalog.AuditResult, error) {
		if auditErr != nil {
			return nil, auditErr
		}
		out := make([]catalog.AuditResult, 0, len(in.Specifications))
		for _, s := range in.Specifications {
			r := catalog.AuditResult{Specification: s.SpecName, Status: catalog.StatusCorrect}
			if s.SpecName == "Finish" {
				r.Status = catalog.StatusIncorrect
				r.Explanation = "Gloss is a coating"
				r.ProblematicOptions = []string{"Gloss"}
			}
			out = append(out, r)
		}
		return out, nil
	})
	services, err := wiring.BuildAppServicesWithAuditor(t.TempDir(), config.Default(), nil,
		func(string, config.AuditorConfig) (audit.Auditor, error) { return stub, nil })
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	s, err := NewServerWithServices(services)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return s
}

func TestNewServerFromRoot(t *testing.T) {
	if _, err := NewServer(t.TempDir(), ""); err != nil {
		t.Fatalf("create server with default config: %v", err)
	}
	if _, err := NewServerWithServices(nil); err == nil {
		t.Fatal("expected error for nil services")
	}
}

func TestHandlePreview(t *testing.T) {
	s := newTestServer(t, nil)
	resp, err := s.handlePreview(context.Background(), DocumentArgs{Content: steelDoc})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	got := resp.(PreviewResult)
	if got.Shape != "legacy_mcat" || got.Preview != 2 {
		t.Errorf("unexpected preview: %+v", got)
	}

	if _, err := s.handlePreview(context.Background(), DocumentArgs{}); err == nil {
		t.Error("expected error without path or content")
	}
	if _, err := s.handlePreview(context.Background(), DocumentArgs{Content: "{"}); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestHandleNormalizeFromPath(t *testing.T) {
	s := newTestServer(t, nil)
	path := filepath.Join(t.TempDir(), "steel.json")
	if err := os.WriteFile(path, []byte(steelDoc), 0600); err != nil {
		t.Fatal(err)
	}

	resp, err := s.handleNormalize(context.Background(), NormalizeArgs{Path: path, MCATName: "Steel"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	input := resp.(*catalog.AuditInput)
	if len(input.Specifications) != 2 || input.Specifications[1].Tier != catalog.TierSecondary {
		t.Errorf("unexpected input: %+v", input)
	}

	_, err = s.handleNormalize(context.Background(), NormalizeArgs{Content: `[]`, MCATName: "Steel"})
	if err == nil || !strings.Contains(err.Error(), "No specifications found") {
		t.Errorf("expected no-specifications message, got %v", err)
	}
}

func TestHandleReport(t *testing.T) {
	s := newTestServer(t, nil)
	resp, err := s.handleReport(context.Background(), ReportArgs{Content: steelDoc, MCATName: "steel", Expanded: []string{"Finish"}})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	view := resp.(report.View)
	if view.Summary.Correct != 1 || view.Summary.Incorrect != 1 {
		t.Errorf("unexpected summary: %+v", view.Summary)
	}
	if !view.Results[1].Expanded {
		t.Error("Finish should be expanded")
	}

	_, err = s.handleReport(context.Background(), ReportArgs{Content: steelDoc, MCATName: " "})
	if err == nil || err.Error() != "MCAT Name is required" {
		t.Errorf("expected missing name message, got %v", err)
	}
}

func TestNameIsCheckedBeforeDocument(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{
			name: "normalize without arguments",
			call: func() error { _, err := s.handleNormalize(ctx, NormalizeArgs{}); return err },
			want: "MCAT Name is required",
		},
		{
			name: "report without arguments",
			call: func() error { _, err := s.handleReport(ctx, ReportArgs{}); return err },
			want: "MCAT Name is required",
		},
		{
			name: "normalize with blank name and broken content",
			call: func() error { _, err := s.handleNormalize(ctx, NormalizeArgs{Content: "{", MCATName: "  "}); return err },
			want: "MCAT Name is required",
		},
		{
			name: "report with name but no document",
			call: func() error { _, err := s.handleReport(ctx, ReportArgs{MCATName: "Steel"}); return err },
			want: "Please upload a specifications JSON file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestHandleReportAuditFailureHidesDetails(t *testing.T) {
	s := newTestServer(t, errors.New("dial tcp 10.0.0.1:443: secret detail"))
	_, err := s.handleReport(context.Background(), ReportArgs{Content: steelDoc, MCATName: "Steel"})
	if err == nil {
		t.Fatal("expected audit failure")
	}
	if strings.Contains(err.Error(), "secret detail") {
		t.Errorf("internal details leaked: %v", err)
	}
}

func TestHandleCheckResults(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.handleCheckResults(context.Background(), CheckResultsArgs{
		Content: `[{"specification":"Grade","status":"correct"},{"specification":"Finish","status":"incorrect","explanation":"x","problematic_options":["Gloss"]}]`,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	got := resp.(CheckResultsResult)
	if !got.Valid || got.Summary.Total != 2 || got.Summary.Incorrect != 1 {
		t.Errorf("unexpected result: %+v", got)
	}

	resp, _ = s.handleCheckResults(context.Background(), CheckResultsArgs{Content: `[{"specification":"Grade","status":"maybe"}]`})
	got = resp.(CheckResultsResult)
	if got.Valid || len(got.Issues) == 0 {
		t.Errorf("expected schema issues, got %+v", got)
	}
}

func TestServeUnknownTransport(t *testing.T) {
	s := newTestServer(t, nil)
	if err := s.Serve(context.Background(), "carrier-pigeon", ""); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
