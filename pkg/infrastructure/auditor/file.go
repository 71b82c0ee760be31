package auditor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// FileAuditor returns verdicts prepared ahead of time in a JSON file.
type FileAuditor struct {
	path string
}

func NewFileAuditor(path string) *FileAuditor {
	return &FileAuditor{path: path}
}

func (a *FileAuditor) ID() string {
	return "file"
}

func (a *FileAuditor) Audit(ctx context.Context, _ catalog.AuditInput) ([]catalog.AuditResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(a.path))
	if err != nil {
		return nil, fmt.Errorf("failed to read audit results: %w", err)
	}
	return DecodeResults(data)
}
