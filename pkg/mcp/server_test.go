package mcp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/specaudit/pkg/mcp"
)

func TestNewServer(t *testing.T) {
	s, err := mcp.NewServer(t.TempDir(), "")
	if err != nil || s == nil {
		t.Fatalf("expected server instance, got %v", err)
	}
}

func TestNewServerBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("auditor:\n  kind: http\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mcp.NewServer(dir, path); err == nil {
		t.Fatal("expected error for http auditor without endpoint")
	}
}
